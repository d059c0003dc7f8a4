package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Config Errors (K100-K199)
	// ============================================

	"K101": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "No kobgen.json or kobgen.yaml was found in the project directory or any parent directory.",
	},
	"K102": {
		Category: CategoryConfig,
		Message:  "Invalid config file",
		Detail:   "The config file could not be parsed.",
	},
	"K103": {
		Category: CategoryConfig,
		Message:  "Invalid config value",
		Detail:   "A configuration value is missing or out of range.",
	},
	"K104": {
		Category: CategoryConfig,
		Message:  "Invalid environment override",
		Detail:   "A KOBGEN_* environment variable could not be applied.",
	},

	// ============================================
	// Scan Errors (K200-K299)
	// ============================================

	"K201": {
		Category: CategoryScan,
		Message:  "Source root not found",
		Detail:   "A configured source root does not exist or is not a directory.",
	},
	"K202": {
		Category: CategoryScan,
		Message:  "Source file unreadable",
		Detail:   "A Kotlin source file could not be read or parsed.",
	},
	"K203": {
		Category: CategoryScan,
		Message:  "Invalid annotated declaration",
		Detail:   "An annotated declaration is not allowed where it appears, or its arguments are invalid.",
	},

	// ============================================
	// Validation Errors (K300-K399)
	// ============================================

	"K301": {
		Category: CategoryValidation,
		Message:  "Duplicate page route",
		Detail:   "Two or more pages resolve to the same route. Each page route must be unique across the project and its dependencies.",
	},
	"K302": {
		Category: CategoryValidation,
		Message:  "Duplicate API route",
		Detail:   "Two or more API endpoints or streams resolve to the same route.",
	},

	// ============================================
	// Artifact Errors (K400-K499)
	// ============================================

	"K401": {
		Category: CategoryArtifact,
		Message:  "Invalid artifact location",
		Detail:   "Artifacts are given as a directory, a .jar/.klib/.zip/.aar file or an s3://bucket/prefix URL.",
	},
	"K402": {
		Category: CategoryArtifact,
		Message:  "Artifact listing failed",
		Detail:   "Dependency registries could not be listed from the object store.",
	},

	// ============================================
	// Output Errors (K500-K599)
	// ============================================

	"K501": {
		Category: CategoryOutput,
		Message:  "Output not writable",
		Detail:   "The generated source or the module registry could not be written.",
	},
	"K502": {
		Category: CategoryOutput,
		Message:  "Code generation failed",
		Detail:   "The registrations source could not be rendered.",
	},
	"K503": {
		Category: CategoryOutput,
		Message:  "Metrics not writable",
		Detail:   "The metrics snapshot could not be written.",
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
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
