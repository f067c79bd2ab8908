package store

import (
	"context"
	"fmt"
)

// SeedStaff is the clinic roster loaded into an empty store.
var SeedStaff = []Staff{
	{
		Name:      "Dr. Ilan Ofeck",
		Role:      "Chief Dentist & Clinic Director",
		Specialty: "General Dentistry, Prosthodontics, Aesthetic Dentistry",
		Bio:       "Graduated from Tel Aviv University School of Dental Medicine. Over 30 years of experience in general and aesthetic dentistry.",
		ImageURL:  "/images/staff/dr-ilan-ofeck.jpg",
		WorkingHours: WorkingHours{
			"sunday": {"08:00-18:00"}, "monday": {"08:00-18:00"}, "tuesday": {"08:00-18:00"},
			"wednesday": {"08:00-18:00"}, "thursday": {"08:00-18:00"}, "friday": {"08:00-13:00"},
		},
		Active: true,
	},
	{
		Name:         "Katy Fridman",
		Role:         "Dental Hygienist",
		Specialty:    "Dental Hygiene, Teeth Cleaning, Patient Education",
		Bio:          "Licensed dental hygienist specializing in tartar removal and patient education on proper oral care.",
		ImageURL:     "/images/staff/katy-fridman.jpg",
		WorkingHours: WorkingHours{"sunday": {"08:00-14:00"}, "tuesday": {"08:00-14:00"}, "thursday": {"08:00-14:00"}},
		Active:       true,
	},
	{
		Name:         "Dr. Sahar Nadel",
		Role:         "Oral & Maxillofacial Surgeon",
		Specialty:    "Oral Surgery, Dental Implants, Periodontal Surgery",
		Bio:          "Graduated from Hebrew University School of Dental Medicine (2010). Completed specialized training in oral surgery.",
		ImageURL:     "/images/staff/dr-sahar-nadel.jpg",
		WorkingHours: WorkingHours{"monday": {"14:00-18:00"}, "wednesday": {"14:00-18:00"}},
		Active:       true,
	},
	{
		Name:         "Dr. Maayan Granit",
		Role:         "Endodontist",
		Specialty:    "Root Canal Treatment, Endodontics",
		Bio:          "Completed endodontics residency at Hebrew University in Jerusalem (2013). Specialist in root canal treatments.",
		ImageURL:     "/images/staff/dr-maayan-granit.jpg",
		WorkingHours: WorkingHours{"monday": {"08:00-14:00"}, "wednesday": {"08:00-14:00"}, "friday": {"08:00-13:00"}},
		Active:       true,
	},
	{
		Name:         "Dr. Dan Zitoni",
		Role:         "Dentist",
		Specialty:    "General Dentistry, Restorations",
		Bio:          "General dentist providing comprehensive dental care and restorative treatments.",
		ImageURL:     "/images/staff/dr-dan-zitoni.jpg",
		WorkingHours: WorkingHours{"sunday": {"14:00-18:00"}, "tuesday": {"14:00-18:00"}, "thursday": {"14:00-18:00"}},
		Active:       true,
	},
	{
		Name:         "Shir Formoza",
		Role:         "Dental Hygienist",
		Specialty:    "Dental Hygiene, Natural Treatment Approaches",
		Bio:          "Licensed dental hygienist with a unique approach using natural treatment methods.",
		ImageURL:     "/images/staff/shir-formoza.jpg",
		WorkingHours: WorkingHours{"monday": {"08:00-14:00"}, "wednesday": {"08:00-14:00"}, "friday": {"08:00-13:00"}},
		Active:       true,
	},
}

// SeedServices is the treatment catalog loaded into an empty store.
var SeedServices = []Service{
	{Name: "Dental Hygiene & Cleaning", LocalizedName: "טיפולי שיננית", DurationMinutes: 45, Category: CategoryPreventive,
		Description: "Professional cleaning to remove plaque and tartar buildup, stain removal, and oral hygiene guidance."},
	{Name: "Teeth Whitening", LocalizedName: "הלבנת שיניים", DurationMinutes: 60, Category: CategoryAesthetic,
		Description: "Professional whitening treatment available both in-office and at-home options."},
	{Name: "Composite Restorations", LocalizedName: "שחזורים", DurationMinutes: 45, Category: CategoryRestorative,
		Description: "White composite fillings replacing old amalgam restorations with better aesthetics."},
	{Name: "Composite Veneers", LocalizedName: "ציפויי קומפוזיט", DurationMinutes: 60, Category: CategoryAesthetic,
		Description: "Modern tooth reshaping technique with pre-visualization of results before treatment."},
	{Name: "Porcelain Veneers", LocalizedName: "ציפויי חרסינה", DurationMinutes: 60, Category: CategoryAesthetic,
		Description: "Thin porcelain shells to close gaps, whiten, reshape, and improve smile aesthetics."},
	{Name: "Porcelain Crowns", LocalizedName: "כתרי חרסינה", DurationMinutes: 60, Category: CategoryRestorative,
		Description: "Complete tooth coverage for structural restoration and aesthetic improvement."},
	{Name: "Root Canal Treatment", LocalizedName: "טיפולי שורש", DurationMinutes: 90, Category: CategoryEndodontics,
		Description: "Deep cleaning and filling of root canals to treat decay and inflammation, preserving the tooth."},
	{Name: "Periodontal Surgery", LocalizedName: "ניתוחי חניכיים", DurationMinutes: 90, Category: CategorySurgery,
		Description: "Treatment for gum disease, bacterial infections, gum recession, and bone loss."},
	{Name: "Dental Implants", LocalizedName: "שתלים דנטליים", DurationMinutes: 120, Category: CategorySurgery,
		Description: "Titanium or zirconia implants as artificial tooth roots with 95%+ success rates."},
	{Name: "Botox Treatment", LocalizedName: "בוטוקס", DurationMinutes: 30, Category: CategoryAesthetic,
		Description: "Relaxes jaw muscles to reduce teeth grinding/clenching and associated pain."},
}

// SeedCapabilities maps a SeedStaff index to the SeedServices indexes they perform.
var SeedCapabilities = map[int][]int{
	0: {2, 3, 4, 5, 9},
	1: {0, 1},
	2: {7, 8},
	3: {6},
	4: {2},
	5: {0, 1},
}

// Seed loads the roster, catalog and capability map when the catalog is empty.
// It reports whether anything was written.
func Seed(ctx context.Context, s Store) (bool, error) {
	existing, err := s.ListServices(ctx)
	if err != nil {
		return false, fmt.Errorf("store: seed check: %w", err)
	}
	if len(existing) > 0 {
		return false, nil
	}

	staffIDs := make([]int64, len(SeedStaff))
	for i := range SeedStaff {
		st := SeedStaff[i]
		st.WorkingHours = st.WorkingHours.Clone()
		if err := s.CreateStaff(ctx, &st); err != nil {
			return false, fmt.Errorf("store: seed staff %q: %w", st.Name, err)
		}
		staffIDs[i] = st.ID
	}
	serviceIDs := make([]int64, len(SeedServices))
	for i := range SeedServices {
		svc := SeedServices[i]
		svc.Active = true
		if err := s.CreateService(ctx, &svc); err != nil {
			return false, fmt.Errorf("store: seed service %q: %w", svc.Name, err)
		}
		serviceIDs[i] = svc.ID
	}
	for staffIdx := range SeedStaff {
		for _, svcIdx := range SeedCapabilities[staffIdx] {
			if err := s.AssignService(ctx, staffIDs[staffIdx], serviceIDs[svcIdx]); err != nil {
				return false, fmt.Errorf("store: seed capability: %w", err)
			}
		}
	}
	return true, nil
}
