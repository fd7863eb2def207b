package server_test

import (
	"bytes"
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/solatis/qbfilter/internal/core/api"
	"github.com/solatis/qbfilter/internal/core/config"
	"github.com/solatis/qbfilter/internal/core/db"
	"github.com/solatis/qbfilter/internal/core/server"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

// syncBuffer collects server logs written from handler goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

const filter = `{"condition":"OR","rules":[
	{"id":"name","field":"name","type":"string","operator":"begins_with","value":"Al"},
	{"id":"age","field":"age","type":"integer","operator":"between","value":[18,30]}]}`

// startServer serves the filter API over an in-memory listener and returns
// a connected client.
func startServer(t *testing.T, logOut *syncBuffer) *grpc.ClientConn {
	t.Helper()
	ctx := context.Background()

	cfg := config.DefaultConfig()
	cfg.Translator.Placeholder = "dollar"
	cfg.Translator.Fields = []string{"name", "age"}

	logger := zerolog.Nop()
	if logOut != nil {
		logger = zerolog.New(logOut)
	}

	engine, err := cfg.Translator.NewEngine(logger)
	require.NoError(t, err)

	database, err := db.Open(ctx, "sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	_, err = db.MigrateUp(ctx, database, logger)
	require.NoError(t, err)
	queries, err := db.LoadQueries(database)
	require.NoError(t, err)

	service, err := api.NewFilterService(engine, db.NewFilterStore(queries, engine), cfg, logger)
	require.NoError(t, err)

	srv, err := server.NewGRPCServer(&cfg.Server, service, logger)
	require.NoError(t, err)

	listener := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(listener) }()
	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestNewGRPCServer_Validation(t *testing.T) {
	cfg := config.DefaultConfig()

	_, err := server.NewGRPCServer(nil, &api.FilterService{}, zerolog.Nop())
	require.Error(t, err)

	_, err = server.NewGRPCServer(&cfg.Server, nil, zerolog.Nop())
	require.Error(t, err)
}

func TestGRPC_Translate(t *testing.T) {
	client := api.NewFilterClient(startServer(t, nil))

	sql, args, err := client.Translate(context.Background(), "people", []byte(filter))

	require.NoError(t, err)
	require.Equal(t, "SELECT * FROM people WHERE (name LIKE $1 OR age BETWEEN $2 AND $3)", sql)
	// Numbers cross the wire as JSON numbers.
	require.Equal(t, []any{"Al%", float64(18), float64(30)}, args)
}

func TestGRPC_Validate(t *testing.T) {
	client := api.NewFilterClient(startServer(t, nil))
	ctx := context.Background()

	require.NoError(t, client.Validate(ctx, []byte(filter)))

	err := client.Validate(ctx, []byte(`{"condition":"AND","rules":[
		{"id":"ssn","field":"ssn","type":"string","operator":"equal","value":"x"}]}`))
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPC_SaveAndApply(t *testing.T) {
	client := api.NewFilterClient(startServer(t, nil))
	ctx := context.Background()

	id, err := client.Save(ctx, "young or Al", []byte(filter))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	sql, args, err := client.Apply(ctx, id, "members")
	require.NoError(t, err)
	require.Equal(t, "SELECT * FROM members WHERE (name LIKE $1 OR age BETWEEN $2 AND $3)", sql)
	require.Len(t, args, 3)
}

func TestGRPC_StatusCodes(t *testing.T) {
	conn := startServer(t, nil)
	client := api.NewFilterClient(conn)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		want codes.Code
	}{
		{
			name: "invalid table",
			call: func() error { _, _, err := client.Translate(ctx, "people;--", []byte(filter)); return err },
			want: codes.InvalidArgument,
		},
		{
			name: "invalid json",
			call: func() error { _, _, err := client.Translate(ctx, "people", []byte(`{`)); return err },
			want: codes.InvalidArgument,
		},
		{
			name: "malformed filter id",
			call: func() error { _, _, err := client.Apply(ctx, "nope", "people"); return err },
			want: codes.InvalidArgument,
		},
		{
			name: "unknown filter",
			call: func() error {
				_, _, err := client.Apply(ctx, "01890a5d-ac96-774b-bcce-b302099a8057", "people")
				return err
			},
			want: codes.NotFound,
		},
		{
			name: "empty name",
			call: func() error { _, err := client.Save(ctx, "  ", []byte(filter)); return err },
			want: codes.InvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, status.Code(tt.call()))
		})
	}
}

func TestGRPC_MissingFilterField(t *testing.T) {
	conn := startServer(t, nil)

	req, err := structpb.NewStruct(map[string]any{"table": "people"})
	require.NoError(t, err)

	err = conn.Invoke(context.Background(), api.MethodValidate, req, new(structpb.Struct))
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPC_Health(t *testing.T) {
	health := grpc_health_v1.NewHealthClient(startServer(t, nil))

	for _, svc := range []string{"", api.ServiceName} {
		resp, err := health.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: svc})
		require.NoError(t, err)
		require.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.GetStatus())
	}
}

func TestGRPC_RequestIDLogged(t *testing.T) {
	logs := &syncBuffer{}
	client := api.NewFilterClient(startServer(t, logs))

	ctx := metadata.AppendToOutgoingContext(context.Background(), "x-request-id", "req-42")
	require.NoError(t, client.Validate(ctx, []byte(filter)))

	require.Contains(t, logs.String(), `"request_id":"req-42"`)
	require.Contains(t, logs.String(), `"method":"/qbfilter.v1.FilterService/Validate"`)
	require.Contains(t, logs.String(), `"code":"OK"`)
}
