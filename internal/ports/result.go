package ports

// ResultCode is the numeric code carried by every response envelope.
type ResultCode int

const (
	CodeSuccess          ResultCode = 0
	CodeError            ResultCode = 1
	CodeAccessDenied     ResultCode = 2
	CodeBusinessError    ResultCode = 1001
	CodeBadArgument      ResultCode = 1002
	CodeNotFound         ResultCode = 1004
	CodeTokenExpired     ResultCode = 2001
	CodeBadCredentials   ResultCode = 2002
	CodeEmailNotVerified ResultCode = 2003
	CodeNeedLogin        ResultCode = 2010
)

// Result is the success/failure envelope returned by mutating operations.
type Result struct {
	Code    ResultCode             `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// Success builds a code 0 result.
func Success(message string) *Result {
	return &Result{Code: CodeSuccess, Message: message}
}

// Failure builds a non-zero result.
func Failure(code ResultCode, message string) *Result {
	return &Result{Code: code, Message: message}
}

// With attaches a data entry and returns r for chaining.
func (r *Result) With(key string, value interface{}) *Result {
	if r.Data == nil {
		r.Data = make(map[string]interface{})
	}
	r.Data[key] = value
	return r
}

func (r *Result) IsSuccess() bool {
	return r.Code == CodeSuccess
}
