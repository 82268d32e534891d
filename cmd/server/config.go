package main

var appConfig = struct {
	AppName string

	Port string `yaml:"port"`

	BaseURL      string `yaml:"base_url" env:"ISEP_BASE_URL" default:"https://portal.isep.ipp.pt"`
	CodeUser     string `yaml:"code_user" env:"ISEP_CODE_USER"`
	CodeUserCode string `yaml:"code_user_code" env:"ISEP_CODE_USER_CODE"`
	Entidade     string `yaml:"entidade" env:"ISEP_ENTIDADE" default:"aluno"`

	Username string `yaml:"username" env:"ISEP_USERNAME"`
	Password string `yaml:"password" env:"ISEP_PASSWORD"`

	Cookies    map[string]string `yaml:"cookies"`
	CookieFile string            `yaml:"cookie_file" env:"ISEP_COOKIE_FILE"`

	WeeksBefore int `yaml:"weeks_before" env:"ISEP_FETCH_WEEKS_BEFORE"`
	WeeksAfter  int `yaml:"weeks_after" env:"ISEP_FETCH_WEEKS_AFTER" default:"6"`

	RefreshMinutes int    `yaml:"refresh_minutes" env:"ISEP_REFRESH_MINUTES" default:"15"`
	Timezone       string `yaml:"timezone" env:"TZ" default:"Europe/Lisbon"`

	TimeoutSeconds int `yaml:"timeout_seconds" env:"ISEP_TIMEOUT_SECONDS" default:"30"`
}{
	AppName: "ISEP ICS Bridge",
	Port:    "8080",
}
