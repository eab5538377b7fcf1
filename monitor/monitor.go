// Package monitor turns a running tile into a small web server so the
// event unit, driver, and simulated device state can be inspected from
// outside while a workload runs.
package monitor

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"sort"
	"strconv"

	// Enable profiling endpoints.
	_ "net/http/pprof"

	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// Monitor serves the registered targets' state over HTTP.
type Monitor struct {
	portNumber int
	actualPort int
	targets    map[string]any
}

// NewMonitor creates a Monitor.
func NewMonitor() *Monitor {
	return &Monitor{targets: make(map[string]any)}
}

// WithPortNumber sets the port the server listens on. Ports below 1000
// are rejected and a random port is used instead.
func (m *Monitor) WithPortNumber(port int) *Monitor {
	if port < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is not allowed for the monitor, "+
				"using a random port instead.\n", port)
		port = 0
	}
	m.portNumber = port
	return m
}

// RegisterTarget makes a named object inspectable. Registering the
// same name twice panics.
func (m *Monitor) RegisterTarget(name string, target any) {
	if _, ok := m.targets[name]; ok {
		panic("monitor: target " + name + " already registered")
	}
	m.targets[name] = target
}

// StartServer starts serving in the background and returns the actual
// port.
func (m *Monitor) StartServer() (int, error) {
	r := mux.NewRouter()
	r.HandleFunc("/api/targets", m.listTargets)
	r.HandleFunc("/api/target/{name}", m.targetDetails)
	r.HandleFunc("/api/resource", m.listResources)
	http.Handle("/", r)

	addr := ":0"
	if m.portNumber > 1000 {
		addr = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return 0, fmt.Errorf("monitor: listening on %s: %w", addr, err)
	}

	m.actualPort = listener.Addr().(*net.TCPAddr).Port
	fmt.Fprintf(os.Stderr,
		"Monitoring tile with http://localhost:%d\n", m.actualPort)

	go func() {
		if err := http.Serve(listener, nil); err != nil {
			panic(err)
		}
	}()

	return m.actualPort, nil
}

// OpenDashboard opens the server root in the local browser.
func (m *Monitor) OpenDashboard() error {
	return browser.OpenURL(
		fmt.Sprintf("http://localhost:%d/api/targets", m.actualPort))
}

func (m *Monitor) listTargets(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(m.targets))
	for name := range m.targets {
		names = append(names, name)
	}
	sort.Strings(names)

	bytes, err := json.Marshal(names)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) targetDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	target, ok := m.targets[name]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(target)
	serializer.SetMaxDepth(1)
	dieOnErr(serializer.Serialize(w))
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memInfo, err := proc.MemoryInfo()
	dieOnErr(err)

	bytes, err := json.Marshal(resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memInfo.RSS,
	})
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		panic(err)
	}
}
