package kommo

type CreateLeadInput struct {
	CustomerName string
	Email        string
	Phone        string // E.164
	PlanName     string
	Price        int64 // minor units
	Tags         []string
}

type embeddedIDs struct {
	Embedded struct {
		Leads []struct {
			ID int `json:"id"`
		} `json:"leads"`
		Contacts []struct {
			ID int `json:"id"`
		} `json:"contacts"`
	} `json:"_embedded"`
}
