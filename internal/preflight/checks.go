package preflight

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"slate/internal/config"
	"slate/internal/template"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckBridgeEndpoint probes the host panel's websocket port. The panel not
// listening is normal when the host application is closed, so the detail says
// so instead of sounding like a fault.
func CheckBridgeEndpoint(ctx context.Context, port int) Result {
	const name = "Host panel"

	address := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	dialer := net.Dialer{Timeout: 2 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("not listening on %s (host application closed?)", address)}
	}
	conn.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("listening on %s", address)}
}

// CheckPlatform verifies that the tracking platform is configured and
// reachable.
func CheckPlatform(ctx context.Context, cfg config.Platform) Result {
	const name = "Tracking platform"

	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing base url"}
	}
	if strings.TrimSpace(cfg.ScriptName) == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return Result{Name: name, Detail: "missing script credentials"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("reachability check failed (%v)", err)}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("reachability check failed (%v)", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return Result{Name: name, Detail: fmt.Sprintf("reachability check failed (%d)", resp.StatusCode)}
	}
	return Result{Name: name, Passed: true, Detail: "reachable"}
}

// CheckTemplate verifies that a configured path template parses.
func CheckTemplate(name, raw string) Result {
	if strings.TrimSpace(raw) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	if _, err := template.Parse(raw); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("invalid template: %v", err)}
	}
	return Result{Name: name, Passed: true, Detail: raw}
}
