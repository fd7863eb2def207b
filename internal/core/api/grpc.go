package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/solatis/qbfilter/internal/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

/*
 * gRPC bindings for FilterService.
 *
 * Messages are google.protobuf.Struct envelopes so no generated code is
 * needed. Request fields:
 *
 *   Translate  {table, filter}     -> {sql, args}
 *   Validate   {filter}            -> {valid: true}
 *   Save       {name, filter}      -> {filter_id}
 *   Apply      {filter_id, table}  -> {sql, args}
 *
 * filter is either the query-builder object itself or its JSON text.
 * Timestamps in args are rendered as RFC 3339 strings.
 */

const (
	ServiceName = "qbfilter.v1.FilterService"

	MethodTranslate = "/" + ServiceName + "/Translate"
	MethodValidate  = "/" + ServiceName + "/Validate"
	MethodSave      = "/" + ServiceName + "/Save"
	MethodApply     = "/" + ServiceName + "/Apply"
)

// FilterServer is the server API for the filter service.
type FilterServer interface {
	TranslateRPC(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ValidateRPC(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SaveRPC(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ApplyRPC(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var _ FilterServer = (*FilterService)(nil)

// ServiceDesc describes the filter service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FilterServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Translate", Handler: unaryHandler(MethodTranslate, FilterServer.TranslateRPC)},
		{MethodName: "Validate", Handler: unaryHandler(MethodValidate, FilterServer.ValidateRPC)},
		{MethodName: "Save", Handler: unaryHandler(MethodSave, FilterServer.SaveRPC)},
		{MethodName: "Apply", Handler: unaryHandler(MethodApply, FilterServer.ApplyRPC)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "qbfilter/v1/filter.proto",
}

// RegisterFilterServer registers srv on s.
func RegisterFilterServer(s grpc.ServiceRegistrar, srv FilterServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type rpcMethod func(FilterServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// unaryHandler adapts m to the grpc.MethodDesc handler signature.
func unaryHandler(fullMethod string, m rpcMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return m(srv.(FilterServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return m(srv.(FilterServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// TranslateRPC handles Translate.
func (s *FilterService) TranslateRPC(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	payload, err := filterPayload(req)
	if err != nil {
		return nil, err
	}
	sql, args, err := s.Translate(ctx, stringField(req, "table"), payload)
	if err != nil {
		return nil, ToStatus(err)
	}
	return queryResponse(sql, args)
}

// ValidateRPC handles Validate.
func (s *FilterService) ValidateRPC(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	payload, err := filterPayload(req)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(ctx, payload); err != nil {
		return nil, ToStatus(err)
	}
	return structpb.NewStruct(map[string]any{"valid": true})
}

// SaveRPC handles Save.
func (s *FilterService) SaveRPC(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	payload, err := filterPayload(req)
	if err != nil {
		return nil, err
	}
	id, err := s.SaveFilter(ctx, stringField(req, "name"), payload)
	if err != nil {
		return nil, ToStatus(err)
	}
	return structpb.NewStruct(map[string]any{"filter_id": string(id)})
}

// ApplyRPC handles Apply.
func (s *FilterService) ApplyRPC(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := types.ParseFilterID(stringField(req, "filter_id"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("invalid filter_id: %v", err))
	}
	sql, args, err := s.ApplyFilter(ctx, id, stringField(req, "table"))
	if err != nil {
		return nil, ToStatus(err)
	}
	return queryResponse(sql, args)
}

// filterPayload extracts the filter document as JSON.
func filterPayload(req *structpb.Struct) ([]byte, error) {
	v, ok := req.GetFields()["filter"]
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "missing filter")
	}

	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return []byte(kind.StringValue), nil
	case *structpb.Value_StructValue:
		payload, err := json.Marshal(kind.StructValue.AsMap())
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("invalid filter: %v", err))
		}
		return payload, nil
	default:
		return nil, status.Error(codes.InvalidArgument, "filter must be an object or JSON string")
	}
}

func stringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

// queryResponse renders sql and args into a response Struct.
func queryResponse(sql string, args []any) (*structpb.Struct, error) {
	values := make([]any, len(args))
	for i, a := range args {
		values[i] = protoArg(a)
	}
	resp, err := structpb.NewStruct(map[string]any{
		"sql":  sql,
		"args": values,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("failed to encode response: %v", err))
	}
	return resp, nil
}

// maxExactInt is the largest integer a structpb number holds exactly.
const maxExactInt = 1 << 53

// protoArg converts query arguments into values structpb accepts.
// Integers beyond the float64 mantissa travel as decimal strings.
func protoArg(a any) any {
	switch v := a.(type) {
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case int64:
		if v > maxExactInt || v < -maxExactInt {
			return strconv.FormatInt(v, 10)
		}
		return v
	case int:
		return protoArg(int64(v))
	case uint64:
		if v > maxExactInt {
			return strconv.FormatUint(v, 10)
		}
		return v
	case nil, string, bool, int32, uint, uint32, float32, float64:
		return v
	default:
		return fmt.Sprint(v)
	}
}
