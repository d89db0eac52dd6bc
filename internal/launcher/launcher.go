package launcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"slate/internal/config"
	"slate/internal/logging"
)

// componentRegex maps template tokens to the regex fragment that captures
// them. version_back is a second occurrence of the version in the same path;
// matches where the two disagree are discarded.
var componentRegex = map[string]string{
	"version":      `[\d.]+`,
	"version_back": `[\d.]+`,
}

// defaultMatchTemplates lists the executable locations to probe per OS. When
// a release moves the install path, a new template gets added here; site
// overrides go through ExtraMatchTemplates in the config.
var defaultMatchTemplates = map[string][]string{
	"darwin": {
		"/Applications/Adobe After Effects CC {version}/Adobe After Effects CC {version_back}.app",
		"/Applications/Adobe After Effects {version}/Adobe After Effects {version_back}.app",
	},
	"windows": {
		"C:/Program Files/Adobe/Adobe After Effects CC {version}/Support Files/AfterFX.exe",
		"C:/Program Files/Adobe/Adobe After Effects {version}/Support Files/AfterFX.exe",
	},
}

var (
	tokenPattern = regexp.MustCompile(`\{(\w+)\}`)
	// quotedTokenPattern matches tokens after QuoteMeta has escaped the
	// braces.
	quotedTokenPattern = regexp.MustCompile(`\\\{(\w+)\\\}`)
)

// Install is one discovered host application installation.
type Install struct {
	Version string
	Path    string
}

// LaunchSpec carries everything needed to start the host with the panel
// bridge wired up.
type LaunchSpec struct {
	Path string
	Args []string
	Env  []string
}

// Scanner discovers installed host applications and prepares launches.
type Scanner struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewScanner builds a Scanner. logger may be nil.
func NewScanner(cfg *config.Config, logger *slog.Logger) *Scanner {
	return &Scanner{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "launcher"),
	}
}

// Scan probes the filesystem for installed host applications, newest first.
// Versions below the configured minimum are dropped.
func (s *Scanner) Scan() []Install {
	templates := append([]string(nil), defaultMatchTemplates[runtime.GOOS]...)
	templates = append(templates, s.cfg.Launcher.ExtraMatchTemplates...)

	var installs []Install
	seen := make(map[string]struct{})
	for _, tmpl := range templates {
		matches, err := globAndMatch(tmpl)
		if err != nil {
			s.logger.Warn("bad executable match template",
				logging.String("template", tmpl),
				logging.Error(err))
			continue
		}
		for _, install := range matches {
			if _, dup := seen[install.Path]; dup {
				continue
			}
			if min := s.cfg.Launcher.MinimumVersion; min != "" && CompareVersions(install.Version, min) < 0 {
				s.logger.Debug("install below minimum version",
					logging.String("path", install.Path),
					logging.String("version", install.Version),
					logging.String("minimum", min))
				continue
			}
			seen[install.Path] = struct{}{}
			installs = append(installs, install)
		}
	}

	sort.Slice(installs, func(i, j int) bool {
		return CompareVersions(installs[i].Version, installs[j].Version) > 0
	})
	return installs
}

// globAndMatch expands a match template into a glob pattern to enumerate
// candidates and a regex to pull the version out of each hit.
func globAndMatch(template string) ([]Install, error) {
	globPattern := tokenPattern.ReplaceAllString(template, "*")

	var badToken string
	regexPattern := quotedTokenPattern.ReplaceAllStringFunc(regexp.QuoteMeta(template), func(token string) string {
		name := strings.Trim(token, `\{}`)
		fragment, ok := componentRegex[name]
		if !ok {
			badToken = name
			return token
		}
		return fmt.Sprintf(`(?P<%s>%s)`, name, fragment)
	})
	if badToken != "" {
		return nil, fmt.Errorf("unknown template token {%s}", badToken)
	}
	re, err := regexp.Compile("^" + regexPattern + "$")
	if err != nil {
		return nil, err
	}

	paths, err := filepath.Glob(globPattern)
	if err != nil {
		return nil, err
	}

	var installs []Install
	names := re.SubexpNames()
	for _, path := range paths {
		match := re.FindStringSubmatch(filepath.ToSlash(path))
		if match == nil {
			continue
		}
		tokens := make(map[string]string, len(names))
		for i, name := range names {
			if name != "" {
				tokens[name] = match[i]
			}
		}
		if back, ok := tokens["version_back"]; ok && back != tokens["version"] {
			continue
		}
		installs = append(installs, Install{Version: tokens["version"], Path: path})
	}
	return installs, nil
}

// CompareVersions compares dotted numeric versions, returning -1, 0 or 1.
// Missing segments count as zero, so "2022" equals "2022.0".
func CompareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		av, bv := 0, 0
		if i < len(as) {
			av, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bv, _ = strconv.Atoi(bs[i])
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

// PrepareLaunch builds the command line and environment that connect the host
// back to the daemon's bridge endpoint.
func (s *Scanner) PrepareLaunch(install Install, fileToOpen string) LaunchSpec {
	spec := LaunchSpec{
		Path: install.Path,
		Env: []string{
			"SLATE_BRIDGE_PORT=" + strconv.Itoa(s.cfg.Bridge.Port),
			"SLATE_PANEL_ID=" + s.cfg.Bridge.Identifier,
			"SLATE_LOG_DIR=" + s.cfg.Paths.LogDir,
		},
	}
	if fileToOpen != "" {
		spec.Args = append(spec.Args, fileToOpen)
	}
	return spec
}

// Launch starts the host application described by spec without waiting for
// it to exit.
func (s *Scanner) Launch(ctx context.Context, spec LaunchSpec) error {
	cmd := exec.CommandContext(ctx, spec.Path, spec.Args...)
	cmd.Env = append(os.Environ(), spec.Env...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch %s: %w", spec.Path, err)
	}
	s.logger.Info("host application launched",
		logging.String("path", spec.Path),
		logging.Int("pid", cmd.Process.Pid))
	// Detach; the host outlives the CLI invocation.
	return cmd.Process.Release()
}
