package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wolfman30/dental-booking-ai/internal/tools"
)

// dispatch runs call against tb. Unknown tools and undecodable arguments
// come back as VALIDATION_ERROR results so the model can correct itself.
func dispatch(ctx context.Context, tb tools.Toolbox, call ToolCall) any {
	switch call.Name {
	case tools.NameGetServices:
		return tb.GetServices(ctx)
	case tools.NameGetClinicTeam:
		return tb.GetClinicTeam(ctx)
	case tools.NameGetStaffForService:
		var in tools.StaffForServiceInput
		if f := decodeArgs(call, &in); f != nil {
			return f
		}
		return tb.GetStaffForService(ctx, in)
	case tools.NameCheckAvailability:
		var in tools.CheckAvailabilityInput
		if f := decodeArgs(call, &in); f != nil {
			return f
		}
		return tb.CheckAvailability(ctx, in)
	case tools.NameCreateAppointment:
		var in tools.CreateAppointmentInput
		if f := decodeArgs(call, &in); f != nil {
			return f
		}
		return tb.CreateAppointment(ctx, in)
	case tools.NameGetPatientHistory:
		var in tools.PatientHistoryInput
		if f := decodeArgs(call, &in); f != nil {
			return f
		}
		return tb.GetPatientHistory(ctx, in)
	case tools.NameSavePatientPreference:
		var in tools.SavePreferenceInput
		if f := decodeArgs(call, &in); f != nil {
			return f
		}
		return tb.SavePatientPreference(ctx, in)
	case tools.NameSearchKnowledgeBase:
		var in tools.KnowledgeInput
		if f := decodeArgs(call, &in); f != nil {
			return f
		}
		return tb.SearchKnowledgeBase(ctx, in)
	default:
		return argumentFailure(fmt.Sprintf("Unknown tool %q", call.Name))
	}
}

type failureResult struct {
	Success bool           `json:"success"`
	Error   *tools.Failure `json:"error"`
}

func argumentFailure(message string) failureResult {
	return failureResult{Error: &tools.Failure{
		ErrorType:  tools.ErrorValidation,
		Message:    message,
		Suggestion: "Check the tool arguments and call it again",
	}}
}

func decodeArgs(call ToolCall, dst any) *failureResult {
	raw, err := json.Marshal(call.Args)
	if err == nil {
		err = json.Unmarshal(raw, dst)
	}
	if err != nil {
		f := argumentFailure(fmt.Sprintf("Invalid arguments for %s: %v", call.Name, err))
		return &f
	}
	return nil
}

// toMap converts a tool result into the generic map the model API expects.
func toMap(result any) (map[string]any, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("agent: encode tool result: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("agent: decode tool result: %w", err)
	}
	return out, nil
}
