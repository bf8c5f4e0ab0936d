package model

import "errors"

// 业务错误，各层用 errors.Is 匹配后映射为 HTTP 状态码
var (
	// ErrValidation 必填字段缺失 -> 400
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized 管理密码错误或缺失 -> 401
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnsupportedType 上传扩展名不在白名单 -> 400
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrPayloadTooLarge 上传超过大小上限 -> 413
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrNotFound 请求的资源不存在 -> 404
	ErrNotFound = errors.New("not found")
)
