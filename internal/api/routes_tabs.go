package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/nao1215/rtps/internal/model"
)

type tabIDInput struct {
	TabID string `path:"tab_id"`
}

type verdictBody struct {
	Verdict model.Verdict `json:"verdict"`
	// Degraded explains why the verdict fell back to unknown.
	Degraded string `json:"degraded,omitempty"`
}

type badgeBody struct {
	Status string `json:"status"`
	Text   string `json:"text"`
	Color  string `json:"color"`
}

func registerTabHandlers(api huma.API, svc Service) {
	type passwordInput struct {
		TabID string `path:"tab_id"`
		Body  struct {
			Host     string `json:"host,omitempty" doc:"Page host; derived from url when empty"`
			URL      string `json:"url" required:"true"`
			Referrer string `json:"referrer,omitempty" doc:"document.referrer of the page"`
		}
	}
	type verdictOutput struct {
		Body verdictBody
	}
	huma.Register(api, huma.Operation{OperationID: "report-password-field", Method: http.MethodPost, Path: "/api/v1/tabs/{tab_id}/password-detected", Summary: "Analyze a page that shows a password field", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *passwordInput) (*verdictOutput, error) {
			v, err := svc.ReportPasswordFieldDetected(ctx, model.TabID(input.TabID), input.Body.Host, input.Body.URL, input.Body.Referrer)
			out := &verdictOutput{}
			out.Body.Verdict = v
			if err != nil {
				if isClientError(err) {
					return nil, mapErr(err)
				}
				// Classifier or settings failures still yield a usable verdict.
				out.Body.Degraded = err.Error()
			}
			return out, nil
		})

	type historyOutput struct {
		Body struct {
			History []model.NavigationEntry `json:"history"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "get-tab-history", Method: http.MethodGet, Path: "/api/v1/tabs/{tab_id}/history", Summary: "Navigation history of a tab, oldest first", Tags: []string{"Tabs"}},
		func(_ context.Context, input *tabIDInput) (*historyOutput, error) {
			out := &historyOutput{}
			out.Body.History = svc.QueryNavigationHistory(model.TabID(input.TabID))
			if out.Body.History == nil {
				out.Body.History = []model.NavigationEntry{}
			}
			return out, nil
		})

	type badgeOutput struct {
		Body badgeBody
	}
	huma.Register(api, huma.Operation{OperationID: "get-tab-badge", Method: http.MethodGet, Path: "/api/v1/tabs/{tab_id}/badge", Summary: "Current badge of a tab", Tags: []string{"Tabs"}},
		func(_ context.Context, input *tabIDInput) (*badgeOutput, error) {
			b := svc.Badge(model.TabID(input.TabID))
			out := &badgeOutput{}
			out.Body = badgeBody{Status: b.String(), Text: b.Text(), Color: b.Color()}
			return out, nil
		})
}
