package constants

const (
	APIFieldRequestID = "request_id"
)

const (
	ContentTypeOctetStream = "application/octet-stream"
	ContentTypeJSON        = "application/json"
	ContentTypeProblemJSON = "application/problem+json"
	ContentTypeTextUTF8    = "text/plain; charset=utf-8"
)

const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
)

const (
	HeaderAccept          = "Accept"
	HeaderAuthorization   = "Authorization"
	HeaderContentLength   = "Content-Length"
	HeaderContentType     = "Content-Type"
	HeaderContentDigest   = "Content-Digest"
	HeaderOrigin          = "Origin"
	HeaderUserAgent       = "User-Agent"
	HeaderXForwardedFor   = "X-Forwarded-For"
	HeaderXForwardedProto = "X-Forwarded-Proto"

	HeaderAccessControlAllowHeaders = "Access-Control-Allow-Headers"

	HeaderXAPIKey        = "X-API-Key" // #nosec G101
	HeaderXRequestID     = "X-Request-ID"
	HeaderXRequestedWith = "X-Requested-With"
)
