package services

import "context"

// RequestInfo identifica quem originou uma operação (requisição HTTP ou CLI).
type RequestInfo struct {
	RequestID string
	IPAddress string
	Username  string
}

type requestInfoKey struct{}

// WithRequestInfo anexa info ao contexto.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFrom devolve o RequestInfo do contexto, ou o valor zero.
func RequestInfoFrom(ctx context.Context) RequestInfo {
	if ctx == nil {
		return RequestInfo{}
	}
	info, _ := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info
}
