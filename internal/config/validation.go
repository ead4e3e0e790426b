package config

import (
	"fmt"
	"go/token"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	kerrors "github.com/conneroisu/keymapgen/internal/errors"
	"github.com/conneroisu/keymapgen/internal/logging"
	"github.com/conneroisu/keymapgen/internal/phash"
	"github.com/conneroisu/keymapgen/internal/renderer"
	"github.com/conneroisu/keymapgen/internal/validation"
)

// ValidationResult separates problems that stop a run from ones that are
// only reported.
type ValidationResult struct {
	Valid    bool
	Errors   []*kerrors.FieldValidationError
	Warnings []*kerrors.FieldValidationError
}

func (vr *ValidationResult) HasErrors() bool   { return len(vr.Errors) > 0 }
func (vr *ValidationResult) HasWarnings() bool { return len(vr.Warnings) > 0 }

// String lists errors then warnings, one field per line with its hints
// indented underneath.
func (vr *ValidationResult) String() string {
	var sb strings.Builder
	writeIssues(&sb, "Errors", vr.Errors)
	if vr.HasErrors() && vr.HasWarnings() {
		sb.WriteByte('\n')
	}
	writeIssues(&sb, "Warnings", vr.Warnings)
	return sb.String()
}

func writeIssues(sb *strings.Builder, title string, issues []*kerrors.FieldValidationError) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintf(sb, "%s:\n", title)
	for _, issue := range issues {
		fmt.Fprintf(sb, "  - %s\n", issue.Error())
		for _, hint := range issue.Suggestions {
			fmt.Fprintf(sb, "      hint: %s\n", hint)
		}
	}
}

func (vr *ValidationResult) addError(field string, value interface{}, msg string, suggestions ...string) {
	vr.Errors = append(vr.Errors, issue(field, value, msg, suggestions))
}

func (vr *ValidationResult) addWarning(field string, value interface{}, msg string, suggestions ...string) {
	vr.Warnings = append(vr.Warnings, issue(field, value, msg, suggestions))
}

func issue(field string, value interface{}, msg string, suggestions []string) *kerrors.FieldValidationError {
	return &kerrors.FieldValidationError{Field: field, Value: value, Message: msg, Suggestions: suggestions}
}

var cppGuardPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateConfigWithDetails checks every section and collects all problems
// instead of stopping at the first.
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{}

	validateCatalogConfigDetails(&config.Catalog, result)
	validateSearchConfigDetails(&config.Search, result)
	validateOutputConfigDetails(&config.Output, result)
	validateCPPConfigDetails(&config.CPP, result)
	validateGoConfigDetails(&config.Go, result)
	validateUnknownConfigDetails(&config.Unknown, result)
	validateLogConfigDetails(&config.Log, result)

	if config.Watch.Debounce < 0 {
		result.addError("watch.debounce", config.Watch.Debounce, "debounce must not be negative",
			"Use a duration such as 300ms")
	}

	result.Valid = !result.HasErrors()
	return result
}

func validateCatalogConfigDetails(config *CatalogConfig, result *ValidationResult) {
	if config.Path == "" {
		return
	}
	if err := validation.ValidatePath(config.Path); err != nil {
		result.addError("catalog.path", config.Path, err.Error())
		return
	}
	if err := validation.ValidateFileExtension(config.Path, []string{".yaml", ".yml"}); err != nil {
		result.addWarning("catalog.path", config.Path, "catalog is read as YAML: "+err.Error())
	}
}

func validateSearchConfigDetails(config *SearchConfig, result *ValidationResult) {
	seed := phash.Params{K1: config.SeedK1, K2: config.SeedK2}
	if !seed.IsZero() && !seed.Valid() {
		result.addError("search.seed_k2", config.SeedK2,
			fmt.Sprintf("shift must be in [%d, %d]", phash.MinK2, phash.MaxK2),
			fmt.Sprintf("The shipped seed is k1=0x%08X k2=%d", phash.DefaultK1, phash.DefaultK2),
			"Set both seed_k1 and seed_k2 to 0 to skip the seed")
	}
	if seed.IsZero() && config.RandomSeed == 0 {
		result.addWarning("search", nil, "no seed and no random_seed: output changes on every run",
			"Set random_seed to make the random search reproducible")
	}
	if config.MaxTrials <= 0 {
		result.addError("search.max_trials", config.MaxTrials, "max_trials must be positive",
			fmt.Sprintf("The default is %d", phash.DefaultMaxTrials))
	}
}

func validateOutputConfigDetails(config *OutputConfig, result *ValidationResult) {
	formats := renderer.Formats()
	if !slices.Contains(formats, config.Format) {
		result.addError("output.format", config.Format, fmt.Sprintf("unknown format %q", config.Format),
			"Available formats: "+strings.Join(formats, ", "))
	}

	if err := validation.ValidatePath(config.Path); err != nil {
		result.addError("output.path", config.Path, "invalid output path: "+err.Error())
	} else if want := extensionFor(config.Format); want != "" && filepath.Ext(config.Path) != want {
		result.addWarning("output.path", config.Path,
			fmt.Sprintf("%s output usually has the %s extension", config.Format, want))
	}

	if err := validation.ValidateCommentText(config.Copyright); err != nil {
		result.addError("output.copyright", config.Copyright, "copyright must fit on one comment line: "+err.Error())
	}

	switch config.License {
	case renderer.LicenseApache2, renderer.LicenseNone:
	default:
		result.addError("output.license", config.License, fmt.Sprintf("unknown license %q", config.License),
			"Use "+renderer.LicenseApache2+" or "+renderer.LicenseNone)
	}
}

func extensionFor(format string) string {
	r, err := renderer.New(format, renderer.DefaultOptions())
	if err != nil {
		return ""
	}
	return r.Extension()
}

func validateCPPConfigDetails(config *CPPConfig, result *ValidationResult) {
	if config.Include == "" {
		result.addError("cpp.include", config.Include, "include cannot be empty",
			"Use <GLFW/glfw3.h> for GLFW targets")
	}
	if !cppGuardPattern.MatchString(config.Guard) {
		result.addError("cpp.guard", config.Guard, "include guard must be a preprocessor identifier")
	}
	for _, part := range strings.Split(config.Namespace, "::") {
		if !cppGuardPattern.MatchString(part) {
			result.addError("cpp.namespace", config.Namespace, "namespace must be identifiers joined by ::")
			break
		}
	}
	if config.InnerNamespace != "" && !cppGuardPattern.MatchString(config.InnerNamespace) {
		result.addError("cpp.inner_namespace", config.InnerNamespace, "inner namespace must be an identifier",
			"Leave it empty to emit a single namespace")
	}
}

func validateGoConfigDetails(config *GoConfig, result *ValidationResult) {
	if !token.IsIdentifier(config.Package) {
		result.addError("go.package", config.Package, "package must be a Go identifier")
	}
	if err := validation.ValidateImportPath(config.TargetImport); err != nil {
		result.addError("go.target_import", config.TargetImport, err.Error(),
			"Use github.com/go-gl/glfw/v3.3/glfw for GLFW")
	}
}

func validateUnknownConfigDetails(config *UnknownConfig, result *ValidationResult) {
	if config.Scancode == "" {
		result.addError("unknown.scancode", config.Scancode, "unknown scancode sentinel cannot be empty")
	}
	if config.Target == "" {
		result.addError("unknown.target", config.Target, "unknown target sentinel cannot be empty")
	}
}

func validateLogConfigDetails(config *LogConfig, result *ValidationResult) {
	if _, err := logging.ParseLevel(config.Level); err != nil {
		result.addError("log.level", config.Level, err.Error(), "Use debug, info, warn or error")
	}
	if config.Format != "text" && config.Format != "json" {
		result.addError("log.format", config.Format, fmt.Sprintf("unknown log format %q", config.Format),
			"Use text or json")
	}
}
