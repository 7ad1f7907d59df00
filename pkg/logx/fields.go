package logx

const (
	FieldAppName         = "app-name"
	FieldAppVersion      = "app-version"
	FieldBotID           = "bot-id"
	FieldComponent       = "component"
	FieldCycleID         = "cycle-id"
	FieldDealID          = "deal-id"
	FieldDurationMs      = "duration-ms"
	FieldError           = "error"
	FieldEventKind       = "event-kind"
	FieldHTTPMethod      = "http-method"
	FieldHTTPRequest     = "http-request"
	FieldHTTPResponse    = "http-response"
	FieldIP              = "ip"
	FieldPair            = "pair"
	FieldRequestBody     = "request-body"
	FieldRequestID       = "request-id"
	FieldResponseBody    = "response-body"
	FieldResponseHeaders = "response-headers"
	FieldResponseStatus  = "response-status"
	FieldScope           = "scope"
	FieldStack           = "stack"
	FieldStatus          = "status"
	FieldStep            = "step"
	FieldTraceID         = "trace-id"
	FieldURL             = "url"
)
