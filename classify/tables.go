package classify

// DefaultTables covers the routes of the gated web application.
// Deployment configuration may replace any bucket entirely.
func DefaultTables() Tables {
	return Tables{
		Unlimited: []string{
			"/internal/health",
			"/internal/health/*",
			"/metrics",
			"/static/*",
			"/media/*",
			"/favicon.ico",
			"/robots.txt",
		},
		Critical: []string{
			"POST:/accounts/login",
			"POST:/accounts/signup",
			"POST:/accounts/password/*",
			"POST:/api/auth/*",
			"POST:/contact",
		},
		High: []string{
			"POST:/api/*",
			"PUT:/api/*",
			"PATCH:/api/*",
			"DELETE:/api/*",
			"POST:/jobs/*",
			"/search*",
		},
		Medium: []string{
			"GET:/api/*",
			"/community/*",
			"/events/*",
		},
		Low: []string{
			"GET:/downloads/*",
			"GET:/blogs/*",
			"GET:/docs/*",
		},
	}
}
