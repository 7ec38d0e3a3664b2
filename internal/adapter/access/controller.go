package access

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// EscalatedEnv marks a process that has already been re-executed with
// elevated privileges. Escalation is attempted at most once per run.
const EscalatedEnv = "BANDICOOT_ESCALATED"

var (
	// ErrUnsafeLocation is returned when the user declines to use a store
	// location flagged as dangerous.
	ErrUnsafeLocation = errors.New("unsafe store location refused")

	// ErrCreationDeclined is returned when the user declines first-time
	// creation of the store directory.
	ErrCreationDeclined = errors.New("store directory creation declined")
)

// Decision tells the caller what must happen before system-scoped report
// directories can be read.
type Decision int

const (
	// AccessGranted means the system report directory is readable (or holds
	// nothing to read).
	AccessGranted Decision = iota

	// EscalationRequired means the caller must re-execute the process with
	// elevated privileges. The controller never replaces the process
	// itself; that transition belongs to main alone.
	EscalationRequired
)

// Controller gates access to privileged report directories and guards the
// storage location before anything is created on disk.
type Controller struct {
	systemReportDir  string
	reportExtensions []string
	assumeYes        bool
	logger           *slog.Logger

	in  *bufio.Reader
	out io.Writer

	// Injection points for tests.
	euid   func() int
	getenv func(string) string
}

// New builds a Controller reading confirmations from in and prompting on out.
func New(systemReportDir string, reportExtensions []string, assumeYes bool, in io.Reader, out io.Writer, logger *slog.Logger) *Controller {
	return &Controller{
		systemReportDir:  systemReportDir,
		reportExtensions: reportExtensions,
		assumeYes:        assumeYes,
		logger:           logger,
		in:               bufio.NewReader(in),
		out:              out,
		euid:             os.Geteuid,
		getenv:           os.Getenv,
	}
}

// CheckSystemAccess decides whether system-scoped report files are readable.
// An empty system directory grants access trivially; otherwise read
// permission is probed on one representative file. When the probe fails for
// an unprivileged process that has not yet escalated, the caller is told to
// escalate; after a failed escalation the condition is fatal.
func (c *Controller) CheckSystemAccess() (Decision, error) {
	var probe string
	for _, ext := range c.reportExtensions {
		matches, err := filepath.Glob(filepath.Join(c.systemReportDir, "*"+ext))
		if err != nil {
			return AccessGranted, fmt.Errorf("enumerate system reports: %w", err)
		}
		if len(matches) > 0 {
			probe = matches[0]
			break
		}
	}
	if probe == "" {
		// Nothing to protect.
		return AccessGranted, nil
	}

	if err := unix.Access(probe, unix.R_OK); err == nil {
		return AccessGranted, nil
	}

	if c.euid() == 0 {
		// Already privileged and still unreadable. Not a permission problem
		// escalation can fix; the extractor will surface per-file errors.
		c.logger.Warn("system reports unreadable despite elevated privileges", "path", probe)
		return AccessGranted, nil
	}
	if c.getenv(EscalatedEnv) != "" {
		return AccessGranted, fmt.Errorf("system reports still unreadable after privilege escalation: %s", probe)
	}
	return EscalationRequired, nil
}

// GuardStoreLocation validates the store path before the store is created.
// Dangerous locations (filesystem root, a superuser home, or any location
// while running as the superuser) require interactive confirmation, as does
// first-time creation of the store directory unless the path was supplied
// explicitly. Declining either prompt aborts with no side effects. On
// approval the directory is created with owner-only permissions.
func (c *Controller) GuardStoreLocation(storePath string, explicit bool) error {
	dir := filepath.Dir(storePath)

	if reason := c.unsafeReason(dir); reason != "" {
		ok := c.confirmf("WARNING: store location %s is risky (%s). Continue anyway? [y/N] ", dir, reason)
		if !ok {
			return fmt.Errorf("%w: %s (%s)", ErrUnsafeLocation, dir, reason)
		}
	}

	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		if !explicit {
			if !c.confirmf("Store directory %s does not exist. Create it? [y/N] ", dir) {
				return fmt.Errorf("%w: %s", ErrCreationDeclined, dir)
			}
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create store directory: %w", err)
		}
		c.logger.Info("created store directory", "path", dir)
	} else if err != nil {
		return fmt.Errorf("inspect store directory: %w", err)
	}

	return nil
}

func (c *Controller) unsafeReason(dir string) string {
	switch filepath.Clean(dir) {
	case "/":
		return "filesystem root"
	case "/root", "/var/root":
		return "superuser home directory"
	}
	if c.euid() == 0 {
		return "running with superuser identity"
	}
	return ""
}

// confirmf prompts and reads one console line. Anything but an explicit yes
// counts as a decline, including an unreadable or exhausted input stream.
func (c *Controller) confirmf(format string, args ...any) bool {
	if c.assumeYes {
		return true
	}
	fmt.Fprintf(c.out, format, args...)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
