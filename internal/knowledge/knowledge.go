// Package knowledge holds the clinic's general information and answers
// keyword queries against it.
package knowledge

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed default_knowledge.json
var defaultDocument []byte

// ClinicInfo is the contact block.
type ClinicInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Website string `json:"website"`
}

// ServiceInfo is a priced service entry.
type ServiceInfo struct {
	Name        string `json:"name"`
	Duration    string `json:"duration"`
	Price       string `json:"price"`
	Description string `json:"description"`
}

// TeamMember is a public staff profile.
type TeamMember struct {
	Name string `json:"name"`
	Role string `json:"role"`
	Bio  string `json:"bio"`
}

// FAQ is a question with its canned answer.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Policies are the clinic's standing rules.
type Policies struct {
	Cancellation string `json:"cancellation"`
	Payment      string `json:"payment"`
	Emergency    string `json:"emergency"`
}

// Base is the whole knowledge document.
type Base struct {
	Clinic    ClinicInfo        `json:"clinic"`
	Hours     map[string]string `json:"hours"`
	Services  []ServiceInfo     `json:"services"`
	Team      []TeamMember      `json:"team"`
	Insurance []string          `json:"insurance"`
	FAQs      []FAQ             `json:"faqs"`
	Policies  Policies          `json:"policies"`
}

// Validate rejects documents without a clinic name.
func (b *Base) Validate() error {
	if b == nil || b.Clinic.Name == "" {
		return fmt.Errorf("knowledge: clinic name is required")
	}
	return nil
}

// Default returns a fresh copy of the built-in document.
func Default() *Base {
	var b Base
	if err := json.Unmarshal(defaultDocument, &b); err != nil {
		panic(fmt.Sprintf("knowledge: embedded document is invalid: %v", err))
	}
	return &b
}
