package errors

// Template defines a registered error type.
type Template struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// ============================================
	// Configuration Errors (E100-E119)
	// ============================================

	"E100": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file could not be read or parsed.",
	},
	"E101": {
		Category: CategoryConfig,
		Message:  "Unsupported configuration format",
		Detail:   "Configuration files must end in .yaml, .yml or .json.",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid port number",
		Detail:   "The UDP port must be between 0 and 65535.",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Invalid port range",
		Detail:   "The port range must not be negative and must not extend past port 65535.",
	},
	"E104": {
		Category: CategoryConfig,
		Message:  "Invalid client limit",
		Detail:   "The maximum number of clients must be at least 1.",
	},
	"E105": {
		Category: CategoryConfig,
		Message:  "Invalid duration",
		Detail:   "Durations are written like \"750ms\" or \"1s\" and must not be negative.",
	},
	"E106": {
		Category: CategoryConfig,
		Message:  "Invalid logging configuration",
		Detail:   "The log level must be debug, info, warn or error and the format text or json.",
	},

	// ============================================
	// Startup and Transport Errors (E200-E219)
	// ============================================

	"E200": {
		Category: CategoryTransport,
		Message:  "Unable to bind event server socket",
		Detail:   "No UDP port in the configured range could be bound.",
	},
	"E201": {
		Category: CategoryStartup,
		Message:  "Status server failed",
		Detail:   "The HTTP status server could not listen or stopped with an error.",
	},

	// ============================================
	// CLI and Sender Errors (E300-E319)
	// ============================================

	"E300": {
		Category: CategoryCLI,
		Message:  "Invalid server address",
		Detail:   "The server address must be host:port.",
	},
	"E301": {
		Category: CategoryTransport,
		Message:  "Send failed",
		Detail:   "The packet could not be sent to the event server.",
	},
	"E302": {
		Category: CategoryCLI,
		Message:  "Invalid argument",
		Detail:   "A command argument could not be parsed.",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template Template) {
	registry[code] = template
}
