package env

type Args struct {
	Config  *string
	Station *string
	Test    *bool
	Verbose *bool
	NoWow   *bool
}
