// Package status aggregates the cached snapshots into one attention report.
// It consumes cache shapes only; it never talks to the monitored systems.
package status

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/danmuck/shtops/internal/cache"
)

type Severity string

const (
	SeverityOK       Severity = "ok"
	SeverityWarn     Severity = "warn"
	SeverityCritical Severity = "critical"
)

func rank(s Severity) int {
	switch s {
	case SeverityOK:
		return 0
	case SeverityWarn:
		return 1
	case SeverityCritical:
		return 2
	default:
		return 1
	}
}

// AttentionItem is one condition worth surfacing.
type AttentionItem struct {
	System   string   `json:"system"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Report is the aggregate view of every cached system.
type Report struct {
	Overall   Severity              `json:"overall_status"`
	Cache     map[string]cache.File `json:"-"`
	Attention []AttentionItem       `json:"attention"`
}

// Systems are the snapshots the aggregator knows how to read.
var Systems = []string{"librenms", "proxmox", "freepbx", "unifi"}

// Proxmox guest/node thresholds.
const (
	proxmoxCPUWarnPct  = 80.0
	proxmoxCPUCritPct  = 95.0
	proxmoxMemWarnPct  = 85.0
	proxmoxMemCritPct  = 95.0
	proxmoxDiskWarnPct = 85.0
	proxmoxDiskCritPct = 95.0

	recentRebootWarnWindow = 15 * time.Minute
)

// Collect loads every cache file and evaluates the attention rules.
func Collect(cacheDir string, ttl time.Duration) Report {
	files := make(map[string]cache.File, len(Systems))
	for _, system := range Systems {
		files[system] = cache.Load(system, cacheDir, ttl)
	}

	var attention []AttentionItem
	add := func(system string, sev Severity, msg string) {
		attention = append(attention, AttentionItem{System: system, Severity: sev, Message: msg})
	}

	for _, system := range Systems {
		cf := files[system]
		switch {
		case cf.Err != "":
			add(system, SeverityWarn, fmt.Sprintf("cache read error: %s", cf.Err))
		case !cf.Exists:
			add(system, SeverityWarn, fmt.Sprintf("no cache file at %s", cf.Path))
		case cf.CollectedAt.IsZero():
			add(system, SeverityWarn, "cache missing collected_at timestamp")
		case !cf.Fresh:
			age := -1
			if cf.HasAge {
				age = cf.AgeSeconds
			}
			add(system, SeverityWarn, fmt.Sprintf("cache is stale (age %s, ttl %ds)", FormatAge(age), int(ttl.Seconds())))
		}
	}

	checkLibreNMS(files["librenms"], add)
	checkProxmox(files["proxmox"], add)
	checkFreePBX(files["freepbx"], add)
	checkUniFi(files["unifi"], add)

	return Report{
		Overall:   overall(attention),
		Cache:     files,
		Attention: attention,
	}
}

func overall(items []AttentionItem) Severity {
	worst := SeverityOK
	for _, item := range items {
		if rank(item.Severity) > rank(worst) {
			worst = item.Severity
		}
	}
	return worst
}

func checkLibreNMS(cf cache.File, add func(string, Severity, string)) {
	active := 0
	for _, v := range asList(cf.Data["alerts"]) {
		alert := asMap(v)
		if alert == nil {
			continue
		}
		if asString(alert["state"]) == "1" {
			active++
		}
	}
	if active > 0 {
		add("librenms", SeverityCritical, fmt.Sprintf("%d active LibreNMS alert(s)", active))
	}
}

func checkProxmox(cf cache.File, add func(string, Severity, string)) {
	nodes := asList(cf.Data["nodes"])

	var down []string
	for _, v := range nodes {
		n := asMap(v)
		if n == nil {
			continue
		}
		name := asString(n["node"])
		if name == "" {
			name = asString(asMap(n["info"])["node"])
		}
		state := strings.ToLower(asString(asMap(n["status"])["status"]))
		if (state == "offline" || state == "unknown") && name != "" {
			down = append(down, name)
		}
	}
	if len(down) > 0 {
		add("proxmox", SeverityCritical, fmt.Sprintf("Proxmox node(s) offline: %s", joinSortedUnique(down)))
	}

	vms := asList(cf.Data["vms"])
	if n := countStatus(vms, "stopped"); n > 0 {
		add("proxmox", SeverityWarn, fmt.Sprintf("%d VM(s) stopped", n))
	}
	containers := asList(cf.Data["containers"])
	if n := countStatus(containers, "stopped"); n > 0 {
		add("proxmox", SeverityWarn, fmt.Sprintf("%d container(s) stopped", n))
	}

	for _, v := range nodes {
		n := asMap(v)
		if n == nil {
			continue
		}
		name := asString(n["node"])
		if name == "" {
			name = "(unknown)"
		}
		status := asMap(n["status"])

		if pct, ok := cpuPct(status["cpu"]); ok {
			if sev, hit := thresholdSeverity(pct, proxmoxCPUWarnPct, proxmoxCPUCritPct); hit {
				add("proxmox", sev, fmt.Sprintf("Node %s CPU high: %.1f%%", name, pct))
			}
		}
		mem := asMap(status["memory"])
		if pct, ok := usedPct(mem["used"], mem["total"]); ok {
			if sev, hit := thresholdSeverity(pct, proxmoxMemWarnPct, proxmoxMemCritPct); hit {
				add("proxmox", sev, fmt.Sprintf("Node %s RAM high: %.1f%%", name, pct))
			}
		}
		rootfs := asMap(status["rootfs"])
		if pct, ok := usedPct(rootfs["used"], rootfs["total"]); ok {
			if sev, hit := thresholdSeverity(pct, proxmoxDiskWarnPct, proxmoxDiskCritPct); hit {
				add("proxmox", sev, fmt.Sprintf("Node %s rootfs high: %.1f%%", name, pct))
			}
		}

		state := strings.ToLower(asString(status["status"]))
		if state == "online" {
			if up, ok := asInt(status["uptime"]); ok && up > 0 && time.Duration(up)*time.Second < recentRebootWarnWindow {
				add("proxmox", SeverityWarn, fmt.Sprintf("Node %s recently rebooted (uptime %ds)", name, up))
			}
		}
	}

	checkProxmoxGuests(vms, "VM", add)
	checkProxmoxGuests(containers, "CT", add)
}

func checkProxmoxGuests(guests []any, kind string, add func(string, Severity, string)) {
	for _, v := range guests {
		g := asMap(v)
		if g == nil {
			continue
		}
		if strings.ToLower(asString(g["status"])) != "running" {
			continue
		}
		label := nameWithID(g)

		if pct, ok := cpuPct(g["cpu"]); ok {
			if sev, hit := thresholdSeverity(pct, proxmoxCPUWarnPct, proxmoxCPUCritPct); hit {
				add("proxmox", sev, fmt.Sprintf("%s CPU high: %s %.1f%%", kind, label, pct))
			}
		}
		if pct, ok := usedPct(g["mem"], g["maxmem"]); ok {
			if sev, hit := thresholdSeverity(pct, proxmoxMemWarnPct, proxmoxMemCritPct); hit {
				add("proxmox", sev, fmt.Sprintf("%s RAM high: %s %.1f%%", kind, label, pct))
			}
		}
		if pct, ok := usedPct(g["disk"], g["maxdisk"]); ok {
			if sev, hit := thresholdSeverity(pct, proxmoxDiskWarnPct, proxmoxDiskCritPct); hit {
				add("proxmox", sev, fmt.Sprintf("%s disk high: %s %.1f%%", kind, label, pct))
			}
		}
		if up, ok := asInt(g["uptime"]); ok && up > 0 && time.Duration(up)*time.Second < recentRebootWarnWindow {
			add("proxmox", SeverityWarn, fmt.Sprintf("%s recently rebooted: %s (uptime %ds)", kind, label, up))
		}
	}
}

func checkFreePBX(cf cache.File, add func(string, Severity, string)) {
	var notRegistered []string
	for _, v := range asList(cf.Data["trunks"]) {
		trunk := asMap(v)
		if trunk == nil {
			continue
		}
		if strings.Contains(asString(trunk["state"]), "Registered") {
			continue
		}
		name := firstNonEmpty(
			asString(trunk["name"]),
			asString(trunk["trunk"]),
			asString(trunk["username"]),
			"(unknown trunk)",
		)
		notRegistered = append(notRegistered, name)
	}
	if len(notRegistered) > 0 {
		add("freepbx", SeverityCritical,
			fmt.Sprintf("FreePBX trunk(s) not registered: %s", joinSortedUnique(notRegistered)))
	}
}

func checkUniFi(cf cache.File, add func(string, Severity, string)) {
	offline := 0
	for _, v := range asList(cf.Data["devices"]) {
		device := asMap(v)
		if device == nil {
			continue
		}
		state, _ := asInt(device["state"])
		if state != 1 {
			offline++
		}
	}
	if offline > 0 {
		add("unifi", SeverityWarn, fmt.Sprintf("%d UniFi device(s) offline", offline))
	}
}

// FormatAge renders an age in seconds the way the dashboard displays it.
// Negative means unknown.
func FormatAge(seconds int) string {
	if seconds < 0 {
		return "unknown"
	}
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	hours := minutes / 60
	minutes = minutes % 60
	if hours < 48 {
		return fmt.Sprintf("%dh%02dm", hours, minutes)
	}
	days := hours / 24
	hours = hours % 24
	return fmt.Sprintf("%dd%02dh", days, hours)
}

func thresholdSeverity(pct, warnPct, critPct float64) (Severity, bool) {
	switch {
	case pct >= critPct:
		return SeverityCritical, true
	case pct >= warnPct:
		return SeverityWarn, true
	default:
		return SeverityOK, false
	}
}

func usedPct(used, total any) (float64, bool) {
	u, uok := asFloat(used)
	t, tok := asFloat(total)
	if !uok || !tok || t <= 0 {
		return 0, false
	}
	return u / t * 100.0, true
}

// cpuPct accepts either a 0..1 fraction (Proxmox's usual shape) or a
// percentage and normalizes to a percentage.
func cpuPct(v any) (float64, bool) {
	c, ok := asFloat(v)
	if !ok {
		return 0, false
	}
	if c <= 1.5 {
		return c * 100.0, true
	}
	return c, true
}

func nameWithID(obj map[string]any) string {
	name := firstNonEmpty(
		asString(obj["name"]),
		asString(obj["hostname"]),
		asString(obj["node"]),
		"(unknown)",
	)
	id := asString(obj["vmid"])
	if id == "" {
		return name
	}
	return fmt.Sprintf("%s (vmid=%s)", name, id)
}

func countStatus(items []any, want string) int {
	n := 0
	for _, v := range items {
		m := asMap(v)
		if m == nil {
			continue
		}
		if strings.ToLower(asString(m["status"])) == want {
			n++
		}
	}
	return n
}

func joinSortedUnique(in []string) string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return strings.Join(out, ", ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func asList(v any) []any {
	list, _ := v.([]any)
	return list
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		// JSON numbers; vmid and state arrive this way.
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func asInt(v any) (int, bool) {
	f, ok := asFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}
