package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/nao1215/rtps/internal/engine"
	"github.com/nao1215/rtps/internal/model"
)

// Event ingestion for browser extensions that cannot be driven over CDP.
// Every endpoint answers 204 on success.
func registerEventHandlers(api huma.API, svc Service) {
	dispatch := func(ctx context.Context, ev engine.Event) (*struct{}, error) {
		if err := svc.Dispatch(ctx, ev); err != nil {
			return nil, mapErr(err)
		}
		return &struct{}{}, nil
	}

	huma.Register(api, huma.Operation{OperationID: "event-commit", Method: http.MethodPost, Path: "/api/v1/events/commit", Summary: "A navigation committed in a tab", Tags: []string{"Events"}},
		func(ctx context.Context, input *struct {
			Body struct {
				TabID          string   `json:"tabId" required:"true"`
				URL            string   `json:"url" required:"true"`
				FrameID        int      `json:"frameId,omitempty" doc:"0 for the main frame"`
				TransitionType string   `json:"transitionType,omitempty"`
				Qualifiers     []string `json:"transitionQualifiers,omitempty"`
			}
		}) (*struct{}, error) {
			b := input.Body
			return dispatch(ctx, engine.NavigationCommitted{
				TabID:          model.TabID(b.TabID),
				URL:            b.URL,
				FrameID:        b.FrameID,
				TransitionType: b.TransitionType,
				Qualifiers:     b.Qualifiers,
			})
		})

	huma.Register(api, huma.Operation{OperationID: "event-new-tab", Method: http.MethodPost, Path: "/api/v1/events/new-tab", Summary: "A tab was opened from a link in another tab", Tags: []string{"Events"}},
		func(ctx context.Context, input *struct {
			Body struct {
				SourceTabID string `json:"sourceTabId" required:"true"`
				TabID       string `json:"tabId" required:"true"`
				URL         string `json:"url,omitempty"`
				SourceURL   string `json:"sourceUrl,omitempty"`
			}
		}) (*struct{}, error) {
			b := input.Body
			return dispatch(ctx, engine.TabCreatedFromLink{
				SourceTabID: model.TabID(b.SourceTabID),
				TabID:       model.TabID(b.TabID),
				URL:         b.URL,
				SourceURL:   b.SourceURL,
			})
		})

	huma.Register(api, huma.Operation{OperationID: "event-request-headers", Method: http.MethodPost, Path: "/api/v1/events/request-headers", Summary: "Request headers of an outgoing request", Tags: []string{"Events"}},
		func(ctx context.Context, input *struct {
			Body struct {
				TabID   string            `json:"tabId" required:"true"`
				Type    string            `json:"type" required:"true" doc:"main_frame for top-level documents"`
				URL     string            `json:"url,omitempty"`
				Headers map[string]string `json:"headers,omitempty"`
			}
		}) (*struct{}, error) {
			b := input.Body
			return dispatch(ctx, engine.RequestHeadersObserved{
				TabID:        model.TabID(b.TabID),
				ResourceType: b.Type,
				URL:          b.URL,
				Headers:      b.Headers,
			})
		})

	type tabOnly struct {
		Body struct {
			TabID string `json:"tabId" required:"true"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "event-tab-removed", Method: http.MethodPost, Path: "/api/v1/events/tab-removed", Summary: "A tab was closed", Tags: []string{"Events"}},
		func(ctx context.Context, input *tabOnly) (*struct{}, error) {
			return dispatch(ctx, engine.TabRemoved{TabID: model.TabID(input.Body.TabID)})
		})

	huma.Register(api, huma.Operation{OperationID: "event-load-start", Method: http.MethodPost, Path: "/api/v1/events/load-start", Summary: "A tab started loading a page", Tags: []string{"Events"}},
		func(ctx context.Context, input *tabOnly) (*struct{}, error) {
			return dispatch(ctx, engine.TabLoadStarted{TabID: model.TabID(input.Body.TabID)})
		})
}
