package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/nao1215/rtps/internal/engine"
	"github.com/nao1215/rtps/internal/model"
)

type hostListsOutput struct {
	Body model.HostLists
}

type hostBodyInput struct {
	Body struct {
		Host string `json:"host" required:"true" minLength:"1"`
	}
}

func registerHostHandlers(api huma.API, svc Service) {
	type hostStatusOutput struct {
		Body model.HostStatus
	}
	huma.Register(api, huma.Operation{OperationID: "get-host-status", Method: http.MethodGet, Path: "/api/v1/hosts/{host}/status", Summary: "Classify a host against the lists", Tags: []string{"Hosts"}},
		func(ctx context.Context, input *struct {
			Host string `path:"host"`
		}) (*hostStatusOutput, error) {
			status, err := svc.QueryHostStatus(ctx, input.Host)
			if err != nil {
				return nil, mapErr(err)
			}
			return &hostStatusOutput{Body: status}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "list-hosts", Method: http.MethodGet, Path: "/api/v1/hosts", Summary: "List safe and unsafe hosts", Tags: []string{"Hosts"}},
		func(ctx context.Context, _ *struct{}) (*hostListsOutput, error) {
			lists, err := svc.HostLists(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			return &hostListsOutput{Body: lists}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "add-safe-host", Method: http.MethodPost, Path: "/api/v1/hosts/safe", Summary: "Put a host on the safe list", Tags: []string{"Hosts"}},
		func(ctx context.Context, input *hostBodyInput) (*hostListsOutput, error) {
			lists, err := svc.AddHost(ctx, input.Body.Host, true)
			if err != nil {
				return nil, mapErr(err)
			}
			return &hostListsOutput{Body: lists}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "add-unsafe-host", Method: http.MethodPost, Path: "/api/v1/hosts/unsafe", Summary: "Put a host on the unsafe list", Tags: []string{"Hosts"}},
		func(ctx context.Context, input *hostBodyInput) (*hostListsOutput, error) {
			lists, err := svc.AddHost(ctx, input.Body.Host, false)
			if err != nil {
				return nil, mapErr(err)
			}
			return &hostListsOutput{Body: lists}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "remove-host", Method: http.MethodDelete, Path: "/api/v1/hosts/{host}", Summary: "Remove a host from both lists", Tags: []string{"Hosts"}},
		func(ctx context.Context, input *struct {
			Host string `path:"host"`
		}) (*hostListsOutput, error) {
			lists, err := svc.RemoveHost(ctx, input.Host)
			if err != nil {
				return nil, mapErr(err)
			}
			return &hostListsOutput{Body: lists}, nil
		})
}

func registerDetectionHandlers(api huma.API, svc Service) {
	type detectionsOutput struct {
		Body struct {
			Detections []model.Detection `json:"detections"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-detections", Method: http.MethodGet, Path: "/api/v1/detections", Summary: "Detected phishing log, oldest first", Tags: []string{"Detections"}},
		func(ctx context.Context, _ *struct{}) (*detectionsOutput, error) {
			detections, err := svc.Detections(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &detectionsOutput{}
			out.Body.Detections = detections
			return out, nil
		})

	type clearOutput struct {
		Body engine.ClearResult
	}
	huma.Register(api, huma.Operation{OperationID: "clear-detections", Method: http.MethodDelete, Path: "/api/v1/detections", Summary: "Clear the detected phishing log", Tags: []string{"Detections"}},
		func(ctx context.Context, _ *struct{}) (*clearOutput, error) {
			res, err := svc.ClearDetections(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			return &clearOutput{Body: res}, nil
		})
}

func registerSettingsHandlers(api huma.API, svc Service) {
	type settingsOutput struct {
		Body model.Settings
	}
	huma.Register(api, huma.Operation{OperationID: "get-settings", Method: http.MethodGet, Path: "/api/v1/settings", Summary: "Current engine settings", Tags: []string{"Settings"}},
		func(ctx context.Context, _ *struct{}) (*settingsOutput, error) {
			s, err := svc.Settings(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			return &settingsOutput{Body: s}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "update-settings", Method: http.MethodPatch, Path: "/api/v1/settings", Summary: "Merge a partial update into the settings", Tags: []string{"Settings"}},
		func(ctx context.Context, input *struct {
			Body model.SettingsPatch
		}) (*settingsOutput, error) {
			s, err := svc.UpdateSettings(ctx, input.Body)
			if err != nil {
				return nil, mapErr(err)
			}
			return &settingsOutput{Body: s}, nil
		})
}
