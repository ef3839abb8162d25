package errors

import "fmt"

// Common error kinds. Typed errors below unwrap to one of these so callers can
// branch with errors.Is.
var (
	// Config errors.
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")
	ErrConfigDirectory   = fmt.Errorf("failed to create config directory")
	ErrConfigFileCreate  = fmt.Errorf("failed to create config file")
	ErrConfigFileExists  = fmt.Errorf("config file already exists")
	ErrConfigFileRename  = fmt.Errorf("failed to rename config file")
	ErrConfigFileChmod   = fmt.Errorf("failed to set config file permissions")
	ErrConfigMarshal     = fmt.Errorf("failed to marshal config")
	ErrUnknownConfigKey  = fmt.Errorf("unknown configuration key")
	ErrInvalidAgent      = fmt.Errorf("invalid download agent")
	ErrInvalidVCSClient  = fmt.Errorf("invalid vcs client")

	// Command errors.
	ErrCannotExecute = fmt.Errorf("cannot execute")
	ErrIO            = fmt.Errorf("i/o failure")
	ErrInvalidText   = fmt.Errorf("invalid utf-8 output")
	ErrCommandFailed = fmt.Errorf("command failed")

	// Source errors.
	ErrInvalidSource        = fmt.Errorf("invalid source")
	ErrSourceMissing        = fmt.Errorf("can't find source")
	ErrUnknownProtocol      = fmt.Errorf("unknown protocol")
	ErrUnknownVCSClient     = fmt.Errorf("unknown VCS client")
	ErrDownloadStatus       = fmt.Errorf("download failed")
	ErrUnsupportedFragment  = fmt.Errorf("unsupported fragment")
	ErrChecksumsUnsupported = fmt.Errorf("checksums not supported")
	ErrRemotesDiffer        = fmt.Errorf("remotes differ")
	ErrRefsDiffer           = fmt.Errorf("refs differ")
	ErrNotCheckedOut        = fmt.Errorf("not checked out")

	// Build errors.
	ErrComponentNotFound = fmt.Errorf("component not found")
	ErrFakerootKey       = fmt.Errorf("failed to read fakeroot key")
	ErrUnknownFunction   = fmt.Errorf("unknown function")
	ErrUnsupportedArch   = fmt.Errorf("unsupported architecture")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
