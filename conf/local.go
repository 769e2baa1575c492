package conf

type Local struct {
	Upstream Upstream
}

type Upstream struct {
	Hosts []string `valid:"required"`
}
