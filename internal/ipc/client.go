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

// Start requests the daemon to start.
func (c *Client) Start() (*StartResponse, error) {
	var resp StartResponse
	if err := c.client.Call("Slate.Start", StartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Slate.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Slate.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueList retrieves the host's render queue.
func (c *Client) QueueList() (*QueueListResponse, error) {
	var resp QueueListResponse
	if err := c.client.Call("Slate.QueueList", QueueListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Commands lists the panel's registered shelf commands.
func (c *Client) Commands() (*CommandsResponse, error) {
	var resp CommandsResponse
	if err := c.client.Call("Slate.Commands", CommandsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TriggerCommand invokes a shelf command by uid.
func (c *Client) TriggerCommand(uid int) (*TriggerCommandResponse, error) {
	var resp TriggerCommandResponse
	if err := c.client.Call("Slate.TriggerCommand", TriggerCommandRequest{UID: uid}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DocumentPath returns the host's active document path.
func (c *Client) DocumentPath() (*DocumentPathResponse, error) {
	var resp DocumentPathResponse
	if err := c.client.Call("Slate.DocumentPath", DocumentPathRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Render forces a render of one queue entry.
func (c *Client) Render(index int) (*RenderResponse, error) {
	var resp RenderResponse
	if err := c.client.Call("Slate.Render", RenderRequest{Index: index}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Publish runs the publish pipeline over the current session.
func (c *Client) Publish() (*PublishResponse, error) {
	var resp PublishResponse
	if err := c.client.Call("Slate.Publish", PublishRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PublishHistory retrieves recent recorded publish runs.
func (c *Client) PublishHistory(limit int) (*PublishHistoryResponse, error) {
	var resp PublishHistoryResponse
	if err := c.client.Call("Slate.PublishHistory", PublishHistoryRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DatabaseHealth retrieves detailed context database diagnostics.
func (c *Client) DatabaseHealth() (*DatabaseHealthResponse, error) {
	var resp DatabaseHealthResponse
	if err := c.client.Call("Slate.DatabaseHealth", DatabaseHealthRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a test notification.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Slate.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogTail fetches recent log events from the daemon.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.client.Call("Slate.LogTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
