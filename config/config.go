// Package config loads the description of a router simulation from YAML
// files and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/vcrouter/noc/messaging"
	"github.com/sarchlab/vcrouter/noc/networking/routing"
	"github.com/sarchlab/vcrouter/noc/networking/switching/iqrouter"
)

// A Route sends the flits for Dest to an output port and a range of its VCs.
type Route struct {
	Dest     int `yaml:"dest"`
	Output   int `yaml:"output"`
	VCStart  int `yaml:"vc_start"`
	VCEnd    int `yaml:"vc_end"`
	Priority int `yaml:"priority"`
}

// Routing selects the routing function of the router.
type Routing struct {
	// Kind is "table" or "mesh".
	Kind string `yaml:"kind"`

	Routes  []Route `yaml:"routes"`
	Default *Route  `yaml:"default"`

	MeshWidth  int    `yaml:"mesh_width"`
	MeshHeight int    `yaml:"mesh_height"`
	MeshOrder  string `yaml:"mesh_order"`
}

// File is the content of a configuration file.
type File struct {
	Router         iqrouter.Config `yaml:"router"`
	RouterID       int             `yaml:"router_id"`
	Routing        Routing         `yaml:"routing"`
	ChannelLatency int             `yaml:"channel_latency"`
	Verbose        bool            `yaml:"verbose"`
}

// Default returns a table-routed default router with single-cycle channels.
func Default() File {
	return File{
		Router:         iqrouter.DefaultConfig(),
		Routing:        Routing{Kind: "table", MeshOrder: "xy"},
		ChannelLatency: 1,
	}
}

// Load reads a YAML file on top of the defaults, applies the VCROUTER_*
// environment variables and validates the result.
func Load(filename string) (File, error) {
	f := Default()

	ext := path.Ext(filename)
	if ext != ".yaml" && ext != ".yml" && ext != ".YAML" {
		return f, fmt.Errorf("%s: expected a .yaml or .yml file", filename)
	}

	bytes, err := os.ReadFile(filename)
	if err != nil {
		return f, err
	}

	err = yaml.Unmarshal(bytes, &f)
	if err != nil {
		return f, fmt.Errorf("%s: %w", filename, err)
	}

	err = ApplyEnv(&f, nil)
	if err != nil {
		return f, err
	}

	err = f.Validate()
	if err != nil {
		return f, fmt.Errorf("%s: %w", filename, err)
	}

	return f, nil
}

// Validate checks the router parameters and the routing description.
func (f File) Validate() error {
	err := f.Router.Validate()
	if err != nil {
		return err
	}

	if f.ChannelLatency < 1 {
		return fmt.Errorf("channel_latency must be at least 1, got %d",
			f.ChannelLatency)
	}

	switch f.Routing.Kind {
	case "table":
		return f.validateTable()
	case "mesh":
		return f.validateMesh()
	default:
		return fmt.Errorf("unknown routing kind %q", f.Routing.Kind)
	}
}

func (f File) validateTable() error {
	if len(f.Routing.Routes) == 0 && f.Routing.Default == nil {
		return errors.New("table routing needs routes or a default route")
	}

	routes := f.Routing.Routes
	if f.Routing.Default != nil {
		routes = append(routes[:len(routes):len(routes)], *f.Routing.Default)
	}

	for _, r := range routes {
		if r.Output < 0 || r.Output >= f.Router.NumOutputs {
			return fmt.Errorf("route to %d uses output %d of %d",
				r.Dest, r.Output, f.Router.NumOutputs)
		}

		if r.VCStart < 0 || r.VCEnd < r.VCStart ||
			r.VCEnd >= f.Router.NumVCs {
			return fmt.Errorf("route to %d uses vcs %d-%d of %d",
				r.Dest, r.VCStart, r.VCEnd, f.Router.NumVCs)
		}
	}

	return nil
}

func (f File) validateMesh() error {
	if f.Routing.MeshWidth <= 0 || f.Routing.MeshHeight <= 0 {
		return fmt.Errorf("mesh size must be positive, got %dx%d",
			f.Routing.MeshWidth, f.Routing.MeshHeight)
	}

	if f.Router.NumInputs != routing.NumMeshPorts ||
		f.Router.NumOutputs != routing.NumMeshPorts {
		return fmt.Errorf("a mesh router needs %d ports", routing.NumMeshPorts)
	}

	if f.RouterID < 0 ||
		f.RouterID >= f.Routing.MeshWidth*f.Routing.MeshHeight {
		return fmt.Errorf("router_id %d is outside the mesh", f.RouterID)
	}

	_, err := routing.ParseDimensionOrder(f.Routing.MeshOrder)

	return err
}

// RoutingFunction builds the routing function and, for mesh routing, the
// lookahead function of the router.
func (f File) RoutingFunction() (
	routing.Function,
	routing.LookaheadFunction,
	error,
) {
	err := f.Validate()
	if err != nil {
		return nil, nil, err
	}

	if f.Routing.Kind == "mesh" {
		order, _ := routing.ParseDimensionOrder(f.Routing.MeshOrder)
		mesh := routing.NewMeshDOR(
			f.Routing.MeshWidth, f.Routing.MeshHeight, f.Router.NumVCs, order)

		return mesh, mesh, nil
	}

	table := routing.NewTable()
	for _, r := range f.Routing.Routes {
		table.DefineRoute(r.Dest, r.candidate())
	}

	if f.Routing.Default != nil {
		table.DefineDefaultRoute(f.Routing.Default.candidate())
	}

	return table, nil, nil
}

func (r Route) candidate() messaging.RouteCandidate {
	return messaging.RouteCandidate{
		OutputPort: r.Output,
		VCStart:    r.VCStart,
		VCEnd:      r.VCEnd,
		Priority:   r.Priority,
	}
}
