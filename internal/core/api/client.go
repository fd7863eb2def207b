package api

import (
	"context"

	"github.com/solatis/qbfilter/internal/types"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// FilterClient calls a remote filter service.
type FilterClient struct {
	cc grpc.ClientConnInterface
}

// NewFilterClient creates a client on cc.
func NewFilterClient(cc grpc.ClientConnInterface) *FilterClient {
	return &FilterClient{cc: cc}
}

func (c *FilterClient) call(ctx context.Context, method string, fields map[string]any) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Translate sends a JSON filter and returns the rendered SQL and arguments.
func (c *FilterClient) Translate(ctx context.Context, table string, payload []byte) (string, []any, error) {
	resp, err := c.call(ctx, MethodTranslate, map[string]any{"table": table, "filter": string(payload)})
	if err != nil {
		return "", nil, err
	}
	sql, args := decodeQuery(resp)
	return sql, args, nil
}

// Validate checks a JSON filter remotely.
func (c *FilterClient) Validate(ctx context.Context, payload []byte) error {
	_, err := c.call(ctx, MethodValidate, map[string]any{"filter": string(payload)})
	return err
}

// Save stores a JSON filter under name.
func (c *FilterClient) Save(ctx context.Context, name string, payload []byte) (types.FilterID, error) {
	resp, err := c.call(ctx, MethodSave, map[string]any{"name": name, "filter": string(payload)})
	if err != nil {
		return "", err
	}
	return types.FilterID(stringField(resp, "filter_id")), nil
}

// Apply renders a saved filter against table.
func (c *FilterClient) Apply(ctx context.Context, id types.FilterID, table string) (string, []any, error) {
	resp, err := c.call(ctx, MethodApply, map[string]any{"filter_id": string(id), "table": table})
	if err != nil {
		return "", nil, err
	}
	sql, args := decodeQuery(resp)
	return sql, args, nil
}

func decodeQuery(resp *structpb.Struct) (string, []any) {
	return stringField(resp, "sql"), resp.GetFields()["args"].GetListValue().AsSlice()
}
