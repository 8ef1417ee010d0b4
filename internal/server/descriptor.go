package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "expense.v1.ExpenseService"
	protoFile   = "expense/v1/expense.proto"
)

// ExpenseServiceServer is the server API for expense.v1.ExpenseService.
// Every method takes and returns a google.protobuf.Struct whose fields
// follow the JSON payloads of the receipts and categories packages.
type ExpenseServiceServer interface {
	IngestImage(context.Context, *structpb.Struct) (*structpb.Struct, error)
	IngestManual(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateReceipt(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecalculateReceipt(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteReceipt(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetReceipt(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListReceipts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListCategories(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateCategory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RenameCategory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteCategory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListShops(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportReceipts(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(ExpenseServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

var methods = []struct {
	name string
	call unaryMethod
}{
	{"IngestImage", ExpenseServiceServer.IngestImage},
	{"IngestManual", ExpenseServiceServer.IngestManual},
	{"UpdateReceipt", ExpenseServiceServer.UpdateReceipt},
	{"RecalculateReceipt", ExpenseServiceServer.RecalculateReceipt},
	{"DeleteReceipt", ExpenseServiceServer.DeleteReceipt},
	{"GetReceipt", ExpenseServiceServer.GetReceipt},
	{"ListReceipts", ExpenseServiceServer.ListReceipts},
	{"ListCategories", ExpenseServiceServer.ListCategories},
	{"CreateCategory", ExpenseServiceServer.CreateCategory},
	{"RenameCategory", ExpenseServiceServer.RenameCategory},
	{"DeleteCategory", ExpenseServiceServer.DeleteCategory},
	{"ListShops", ExpenseServiceServer.ListShops},
	{"ExportReceipts", ExpenseServiceServer.ExportReceipts},
}

// ServiceDesc is the grpc.ServiceDesc for expense.v1.ExpenseService.
var ServiceDesc = buildServiceDesc()

func buildServiceDesc() grpc.ServiceDesc {
	desc := grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*ExpenseServiceServer)(nil),
		Streams:     []grpc.StreamDesc{},
		Metadata:    protoFile,
	}
	for _, m := range methods {
		desc.Methods = append(desc.Methods, grpc.MethodDesc{
			MethodName: m.name,
			Handler:    unaryHandler(m.name, m.call),
		})
	}
	return desc
}

func unaryHandler(name string, call unaryMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + ServiceName + "/" + name
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ExpenseServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ExpenseServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// RegisterExpenseServiceServer registers srv on s.
func RegisterExpenseServiceServer(s grpc.ServiceRegistrar, srv ExpenseServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// The service has no generated .pb.go, so its file descriptor is built here
// and registered globally; server reflection resolves it from there.
func init() {
	structType := proto.String(".google.protobuf.Struct")
	svc := &descriptorpb.ServiceDescriptorProto{Name: proto.String("ExpenseService")}
	for _, m := range methods {
		svc.Method = append(svc.Method, &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(m.name),
			InputType:  structType,
			OutputType: structType,
		})
	}
	fdp := &descriptorpb.FileDescriptorProto{
		Name:       proto.String(protoFile),
		Package:    proto.String("expense.v1"),
		Dependency: []string{structpb.File_google_protobuf_struct_proto.Path()},
		Service:    []*descriptorpb.ServiceDescriptorProto{svc},
		Syntax:     proto.String("proto3"),
	}
	fd, err := protodesc.NewFile(fdp, protoregistry.GlobalFiles)
	if err != nil {
		panic("expense.v1 descriptor: " + err.Error())
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic("expense.v1 descriptor: " + err.Error())
	}
}
