package domain

// Contact is the CRM-side view of a candidate. Tags are the CRM property names.
type Contact struct {
	Email       string `json:"email"`
	FirstName   string `json:"firstname"`
	LastName    string `json:"lastname"`
	JobTitle    string `json:"jobtitle"`
	Company     string `json:"company"`
	LinkedInURL string `json:"hs_linkedin_url"`
	Industry    string `json:"industry"`
	CompanySize string `json:"company_size"`
}
