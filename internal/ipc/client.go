package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Slidesmith.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Rebuild requests an immediate build.
func (c *Client) Rebuild() (*RebuildResponse, error) {
	var resp RebuildResponse
	if err := c.client.Call("Slidesmith.Rebuild", RebuildRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConfigGet resolves one setting, or every setting when key is empty.
func (c *Client) ConfigGet(key string) (*ConfigGetResponse, error) {
	var resp ConfigGetResponse
	if err := c.client.Call("Slidesmith.ConfigGet", ConfigGetRequest{Key: key}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConfigSet stores an override for one setting.
func (c *Client) ConfigSet(key, value string) (*ConfigSetResponse, error) {
	var resp ConfigSetResponse
	if err := c.client.Call("Slidesmith.ConfigSet", ConfigSetRequest{Key: key, Value: value}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConfigUnset removes one stored override.
func (c *Client) ConfigUnset(key string) (*ConfigUnsetResponse, error) {
	var resp ConfigUnsetResponse
	if err := c.client.Call("Slidesmith.ConfigUnset", ConfigUnsetRequest{Key: key}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConfigReset removes every stored override.
func (c *Client) ConfigReset() (*ConfigResetResponse, error) {
	var resp ConfigResetResponse
	if err := c.client.Call("Slidesmith.ConfigReset", ConfigResetRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConfigList fetches the stored overrides.
func (c *Client) ConfigList() (*ConfigListResponse, error) {
	var resp ConfigListResponse
	if err := c.client.Call("Slidesmith.ConfigList", ConfigListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification asks the daemon to send a test push.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Slidesmith.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Plan asks the daemon for a dry-run assembly plan.
func (c *Client) Plan() (*PlanResponse, error) {
	var resp PlanResponse
	if err := c.client.Call("Slidesmith.Plan", PlanRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
