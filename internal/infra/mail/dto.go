package mail

type WelcomeEmailData struct {
	Name         string
	PlanName     string
	DashboardURL string
}

type EmailSender struct {
	Host         string
	Port         int
	User         string
	Password     string
	From         string
	DashboardURL string

	dialer dialer
}
