// Package plugin runs cluster namers out of process over hashicorp/go-plugin
// net/rpc, so labelling back-ends can ship as separate binaries.
package plugin

import (
	"context"
	"fmt"
	"net/rpc"
	"os/exec"

	"github.com/hashicorp/go-plugin"

	"github.com/NielsdaWheelz/suno-demo/internal/naming"
)

// HandshakeConfig is used to handshake between host and plugin.
var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "SUNOLAB_PLUGIN_MAGIC_COOKIE",
	MagicCookieValue: "sunolab-namer",
}

// NamerPluginName is the key a namer plugin is dispensed under.
const NamerPluginName = "namer"

// PluginMap is the map of plugins we can dispense.
var PluginMap = map[string]plugin.Plugin{
	NamerPluginName: &NamerRPCPlugin{},
}

// NamerRPCPlugin implements plugin.Plugin for naming.Namer.
type NamerRPCPlugin struct {
	Impl naming.Namer
}

func (p *NamerRPCPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &NamerRPCServer{Impl: p.Impl}, nil
}

func (p *NamerRPCPlugin) Client(_ *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &NamerRPCClient{client: c}, nil
}

// NameArgs is the RPC request.
type NameArgs struct {
	Prompts []string
}

// NamerRPCServer is the plugin side of the connection.
type NamerRPCServer struct {
	Impl naming.Namer
}

func (s *NamerRPCServer) Name(args NameArgs, resp *string) error {
	label, err := s.Impl.Name(context.Background(), args.Prompts)
	if err != nil {
		return err
	}
	*resp = label
	return nil
}

// NamerRPCClient is the host side of the connection. It satisfies naming.Namer.
type NamerRPCClient struct {
	client *rpc.Client
}

func (c *NamerRPCClient) Name(ctx context.Context, prompts []string) (string, error) {
	var resp string
	call := c.client.Go("Plugin.Name", NameArgs{Prompts: prompts}, &resp, make(chan *rpc.Call, 1))
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-call.Done:
	}
	if call.Error != nil {
		return "", fmt.Errorf("namer plugin: %w", call.Error)
	}
	return resp, nil
}

// Serve runs impl as a plugin process. It does not return.
func Serve(impl naming.Namer) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: HandshakeConfig,
		Plugins: map[string]plugin.Plugin{
			NamerPluginName: &NamerRPCPlugin{Impl: impl},
		},
	})
}

// Namer is a launched plugin process. Kill must be called when done.
type Namer struct {
	naming.Namer
	client *plugin.Client
}

// Launch starts the plugin binary at path and dispenses its namer.
func Launch(path string, args ...string) (*Namer, error) {
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  HandshakeConfig,
		Plugins:          PluginMap,
		Cmd:              exec.Command(path, args...), // #nosec G204
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolNetRPC},
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to start namer plugin: %w", err)
	}
	raw, err := rpcClient.Dispense(NamerPluginName)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to dispense namer: %w", err)
	}
	namer, ok := raw.(naming.Namer)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("plugin %s does not implement a namer", path)
	}
	return &Namer{Namer: namer, client: client}, nil
}

// Kill stops the plugin process.
func (n *Namer) Kill() {
	n.client.Kill()
}
