package control

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ClockStatus is the decoded GetClock response.
type ClockStatus struct {
	Tick            float64
	TotalSimSeconds float64
	RealTime        string
	SimTime         string
	Paused          bool
}

// ActorSummary is one decoded entry of ListActors.
type ActorSummary struct {
	ID              string
	Name            string
	X, Y            float64
	Heading         float64
	SteeringHandles int
	Active          bool
}

// Client calls the control service over an existing connection.
type Client struct {
	conn  grpc.ClientConnInterface
	close func() error
}

// Dial connects to addr without transport security, with tracing and
// request-ID propagation enabled.
func Dial(addr string, extra ...grpc.DialOption) (*Client, error) {
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithChainUnaryInterceptor(RequestIDUnaryClientInterceptor()),
	}, extra...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{conn: conn, close: conn.Close}, nil
}

// NewClient wraps an existing connection. Close is then a no-op.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Close releases the connection created by Dial.
func (c *Client) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}

// Clock fetches the simulation clock.
func (c *Client) Clock(ctx context.Context) (ClockStatus, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, MethodGetClock, &emptypb.Empty{}, out); err != nil {
		return ClockStatus{}, err
	}
	f := out.GetFields()
	return ClockStatus{
		Tick:            f["tick"].GetNumberValue(),
		TotalSimSeconds: f["total_sim_seconds"].GetNumberValue(),
		RealTime:        f["real_time"].GetStringValue(),
		SimTime:         f["sim_time"].GetStringValue(),
		Paused:          f["paused"].GetBoolValue(),
	}, nil
}

// Start resumes the simulation.
func (c *Client) Start(ctx context.Context) error {
	return c.conn.Invoke(ctx, MethodStart, &emptypb.Empty{}, new(emptypb.Empty))
}

// Pause stops the simulation.
func (c *Client) Pause(ctx context.Context) error {
	return c.conn.Invoke(ctx, MethodPause, &emptypb.Empty{}, new(emptypb.Empty))
}

// Actors lists every registered actor.
func (c *Client) Actors(ctx context.Context) ([]ActorSummary, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, MethodListActors, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	values := out.GetFields()["actors"].GetListValue().GetValues()
	res := make([]ActorSummary, 0, len(values))
	for _, v := range values {
		f := v.GetStructValue().GetFields()
		res = append(res, ActorSummary{
			ID:              f["id"].GetStringValue(),
			Name:            f["name"].GetStringValue(),
			X:               f["x"].GetNumberValue(),
			Y:               f["y"].GetNumberValue(),
			Heading:         f["heading"].GetNumberValue(),
			SteeringHandles: int(f["steering_handles"].GetNumberValue()),
			Active:          f["active"].GetBoolValue(),
		})
	}
	return res, nil
}

// RemoveActor removes the actor with the given ID.
func (c *Client) RemoveActor(ctx context.Context, id uuid.UUID) error {
	req, err := structpb.NewStruct(map[string]any{"id": id.String()})
	if err != nil {
		return err
	}
	return c.conn.Invoke(ctx, MethodRemoveActor, req, new(emptypb.Empty))
}

// Health reports the serving status of the control service.
func (c *Client) Health(ctx context.Context) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := healthpb.NewHealthClient(c.conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}
