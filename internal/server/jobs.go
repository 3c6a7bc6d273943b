package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/jobs-tracker/internal/common"
	"github.com/joseph-ayodele/jobs-tracker/internal/jobnumber"
	"github.com/joseph-ayodele/jobs-tracker/internal/parcel"
	"github.com/joseph-ayodele/jobs-tracker/internal/services/jobs"
)

// JobsServiceName is the fully qualified gRPC service name.
const JobsServiceName = "jobs.v1.JobsService"

const (
	JobsService_NextJobNumber_FullMethodName = "/jobs.v1.JobsService/NextJobNumber"
	JobsService_SubmitJob_FullMethodName     = "/jobs.v1.JobsService/SubmitJob"
	JobsService_GetJob_FullMethodName        = "/jobs.v1.JobsService/GetJob"
)

// JobsServiceServer is the server API for the jobs service. Messages are
// well-known types: submissions and job details travel as Structs of
// string values keyed by column name.
type JobsServiceServer interface {
	NextJobNumber(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	SubmitJob(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetJob(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

// JobsServiceDesc is the grpc.ServiceDesc for the jobs service.
var JobsServiceDesc = grpc.ServiceDesc{
	ServiceName: JobsServiceName,
	HandlerType: (*JobsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "NextJobNumber", Handler: _JobsService_NextJobNumber_Handler},
		{MethodName: "SubmitJob", Handler: _JobsService_SubmitJob_Handler},
		{MethodName: "GetJob", Handler: _JobsService_GetJob_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "jobs/v1/jobs.proto",
}

func RegisterJobsServiceServer(s grpc.ServiceRegistrar, srv JobsServiceServer) {
	s.RegisterService(&JobsServiceDesc, srv)
}

func _JobsService_NextJobNumber_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(JobsServiceServer).NextJobNumber(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: JobsService_NextJobNumber_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(JobsServiceServer).NextJobNumber(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _JobsService_SubmitJob_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(JobsServiceServer).SubmitJob(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: JobsService_SubmitJob_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(JobsServiceServer).SubmitJob(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _JobsService_GetJob_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(JobsServiceServer).GetJob(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: JobsService_GetJob_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(JobsServiceServer).GetJob(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// JobsServiceClient is the client API for the jobs service.
type JobsServiceClient interface {
	NextJobNumber(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	SubmitJob(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetJob(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type jobsServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewJobsServiceClient(cc grpc.ClientConnInterface) JobsServiceClient {
	return &jobsServiceClient{cc}
}

func (c *jobsServiceClient) NextJobNumber(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, JobsService_NextJobNumber_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *jobsServiceClient) SubmitJob(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, JobsService_SubmitJob_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *jobsServiceClient) GetJob(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, JobsService_GetJob_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// JobServer adapts the session service to gRPC.
type JobServer struct {
	svc    *jobs.Service
	logger *slog.Logger
}

func NewJobServer(svc *jobs.Service, logger *slog.Logger) *JobServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobServer{svc: svc, logger: logger}
}

// NextJobNumber issues the next unused job number.
func (s *JobServer) NextJobNumber(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	id, err := s.svc.NextJobNumber(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.String(id), nil
}

// SubmitJob persists one submission and reports the outcome per table.
func (s *JobServer) SubmitJob(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	values, err := stringFields(req)
	if err != nil {
		return nil, err
	}

	res, err := s.svc.Submit(ctx, values)
	if err != nil {
		s.logger.Warn("grpc.submit.failed", "job_number", values["job_number"], "request_id", common.RequestIDFromContext(ctx), "error", err)
		return nil, toStatus(err)
	}

	out, err := structpb.NewStruct(map[string]interface{}{
		"job_number":  res.JobNumber,
		"archival":    string(res.Archival),
		"operational": string(res.Operational),
	})
	if err != nil {
		return nil, common.InternalErrorf("encode result: %v", err)
	}
	return out, nil
}

// GetJob returns the gathered details of a known archival job.
func (s *JobServer) GetJob(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	id := strings.TrimSpace(req.GetValue())
	v := common.NewValidator()
	v.Field("job_number", id, common.Required, jobNumberRule)
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}

	details, ok, err := s.svc.ExistingJobDetails(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	if !ok {
		return nil, common.NotFoundError(fmt.Sprintf("job %s not found", id))
	}

	fields := make(map[string]interface{}, len(details)+1)
	for k, v := range details {
		fields[k] = v
	}
	fields["job_number"] = id
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, common.InternalErrorf("encode job: %v", err)
	}
	return out, nil
}

func jobNumberRule(fieldName string, value interface{}) *common.ValidationError {
	if s, _ := value.(string); s != "" && !jobnumber.Valid(s) {
		return &common.ValidationError{Field: fieldName, Value: value, Message: "must be a YYMMSSSS job number"}
	}
	return nil
}

// stringFields flattens a submission. Null values are dropped; anything
// other than a string is rejected.
func stringFields(req *structpb.Struct) (map[string]string, error) {
	out := make(map[string]string, len(req.GetFields()))
	for k, v := range req.GetFields() {
		switch kind := v.GetKind().(type) {
		case *structpb.Value_StringValue:
			out[k] = kind.StringValue
		case *structpb.Value_NullValue:
		default:
			return nil, common.InvalidArgumentErrorf("field %q must be a string", k)
		}
	}
	return out, nil
}

// toStatus maps domain errors onto gRPC codes.
func toStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, parcel.ErrNotFound), errors.Is(err, common.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, parcel.ErrUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, jobnumber.ErrSequenceExhausted):
		return status.Error(codes.ResourceExhausted, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
