package app

// App is what CLI commands run against: the resolved configuration and the
// dependency graph built from it.
type App struct {
	Config *Config
	*Wire
}

// New loads configuration from configFile (may be empty) and the
// environment, lets override adjust it, and wires the services.
func New(configFile string, override func(*Config)) (*App, error) {
	cfg, err := NewConfig(configFile)
	if err != nil {
		return nil, err
	}
	if override != nil {
		override(cfg)
	}
	w, err := NewWire(cfg)
	if err != nil {
		return nil, err
	}
	return &App{Config: cfg, Wire: w}, nil
}
