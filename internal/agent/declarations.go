package agent

import (
	"github.com/google/generative-ai-go/genai"

	"github.com/wolfman30/dental-booking-ai/internal/tools"
)

func str(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc}
}

func integer(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeInteger, Description: desc}
}

func object(required []string, props map[string]*genai.Schema) *genai.Schema {
	return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: required}
}

func functionDeclarations() []*genai.FunctionDeclaration {
	return []*genai.FunctionDeclaration{
		{
			Name:        tools.NameGetServices,
			Description: "Get all available dental services with their details. Use this when a patient asks about services or treatments.",
		},
		{
			Name:        tools.NameGetStaffForService,
			Description: "Find which staff members can perform a specific service. Use this before checking availability.",
			Parameters: object([]string{"serviceName"}, map[string]*genai.Schema{
				"serviceName": str(`Name or keywords of the service (e.g., "root canal", "cleaning", "implant")`),
			}),
		},
		{
			Name:        tools.NameCheckAvailability,
			Description: "Check available appointment slots for a staff member on a specific date. Always get the staff member first using getStaffForService.",
			Parameters: object([]string{"staffId", "date"}, map[string]*genai.Schema{
				"staffId":         integer("ID of the staff member"),
				"date":            str("Date to check in YYYY-MM-DD format"),
				"serviceDuration": integer("Duration of the service in minutes (default 30)"),
				"serviceName":     str("Name of the service"),
			}),
		},
		{
			Name:        tools.NameGetClinicTeam,
			Description: "Get information about the clinic team and staff members.",
		},
		{
			Name:        tools.NameCreateAppointment,
			Description: "Create a new pending appointment. This will notify the clinic owner for approval.",
			Parameters: object([]string{"patientName", "patientEmail", "serviceId", "service", "staffId", "dateTime"}, map[string]*genai.Schema{
				"patientName":  str("Full name of the patient"),
				"patientEmail": str("Email address for confirmation"),
				"patientPhone": str("Phone number (optional)"),
				"serviceId":    integer("ID of the service"),
				"service":      str("Name of the dental service"),
				"staffId":      integer("ID of the staff member"),
				"dateTime":     str("Appointment date and time in ISO format (e.g., 2025-03-10T10:00:00)"),
				"notes":        str("Anything the clinic should know before the visit"),
			}),
		},
		{
			Name:        tools.NameGetPatientHistory,
			Description: "Get patient history and preferences if they have visited before. ALWAYS use this when a patient provides their email.",
			Parameters: object([]string{"email"}, map[string]*genai.Schema{
				"email": str("Patient email to look up"),
			}),
		},
		{
			Name:        tools.NameSavePatientPreference,
			Description: `Save a patient preference or note for future reference (e.g., "prefers morning appointments", "allergic to latex").`,
			Parameters: object([]string{"email", "preference"}, map[string]*genai.Schema{
				"email":      str("Patient email"),
				"preference": str("Preference or note to save"),
			}),
		},
		{
			Name:        tools.NameSearchKnowledgeBase,
			Description: "Search the clinic knowledge base for pricing, hours, insurance, policies, team and other general clinic information.",
			Parameters: object([]string{"query"}, map[string]*genai.Schema{
				"query": str("What information to search for"),
			}),
		},
	}
}
