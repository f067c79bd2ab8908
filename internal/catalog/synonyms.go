package catalog

// Synonym maps a lowercase keyword found in a request to a canonical service name.
type Synonym struct {
	Keyword string
	Service string
}

// DefaultSynonyms is checked in order and the first keyword contained in the
// request wins, so an earlier keyword shadows any later phrase containing it.
var DefaultSynonyms = []Synonym{
	{"cleaning", "Dental Hygiene & Cleaning"},
	{"hygiene", "Dental Hygiene & Cleaning"},
	{"checkup", "Dental Hygiene & Cleaning"},
	{"whitening", "Teeth Whitening"},
	{"whiten", "Teeth Whitening"},
	{"bleaching", "Teeth Whitening"},
	{"filling", "Composite Restorations"},
	{"restoration", "Composite Restorations"},
	{"composite veneer", "Composite Veneers"},
	{"porcelain veneer", "Porcelain Veneers"},
	{"veneer", "Porcelain Veneers"},
	{"laminate", "Porcelain Veneers"},
	{"crown", "Porcelain Crowns"},
	{"root canal", "Root Canal Treatment"},
	{"endodontic", "Root Canal Treatment"},
	{"gum", "Periodontal Surgery"},
	{"periodontal", "Periodontal Surgery"},
	{"gum surgery", "Periodontal Surgery"},
	{"implant", "Dental Implants"},
	{"implants", "Dental Implants"},
	{"botox", "Botox Treatment"},
	{"grinding", "Botox Treatment"},
	{"clenching", "Botox Treatment"},
}
