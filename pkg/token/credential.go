// Package token 负责从请求凭证中解出用户上下文载荷。
//
// 本核心信任上游认证服务：凭证可以是 JWT（只解码 payload，不验签），
// 也可以是 Base64 编码的 JSON。签名校验是明确的非目标。
package token

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidCredential 表示凭证缺失、格式错误或缺少必要字段。
// 这是客户端错误，永远不应重试。
var ErrInvalidCredential = errors.New("token: invalid credential payload")

// Credential 是从凭证载荷中解出的用户上下文。
// 必要字段在解码时显式校验；其余未识别的载荷字段原样保留在 Extra 中
// 向下游透传，作为前向兼容的旁路通道。
type Credential struct {
	UserID   uint64
	UserName string
	TenantID uint64
	DeptID   uint64
	DeptName string
	ClientID string
	Extra    map[string]interface{}
}

// Decode 解析凭证字符串。
// 输入可带 "Bearer " 前缀；包含 '.' 时按 JWT 处理（仅解码 payload），
// 否则按 Base64 编码的 JSON 处理。载荷必须至少包含租户与部门标识。
func Decode(raw string) (*Credential, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "Bearer ")
	raw = strings.TrimPrefix(raw, "bearer ")
	if raw == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidCredential)
	}

	var payload map[string]interface{}
	var err error
	if strings.Contains(raw, ".") {
		payload, err = decodeJWTPayload(raw)
	} else {
		payload, err = decodeBase64Payload(raw)
	}
	if err != nil {
		return nil, err
	}

	return credentialFromPayload(payload)
}

// decodeJWTPayload 解码 JWT 的 payload 部分，不验证签名。
func decodeJWTPayload(tokenString string) (map[string]interface{}, error) {
	claims := jwt.MapClaims{}
	// WithJSONNumber 避免数字型 ID 经过 float64 损失精度。
	parser := jwt.NewParser(jwt.WithJSONNumber())
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	return claims, nil
}

// decodeBase64Payload 解码 Base64 编码的 JSON 载荷。
func decodeBase64Payload(raw string) (map[string]interface{}, error) {
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		// 兼容无填充的编码。
		data, err = base64.RawStdEncoding.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
		}
	}

	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var payload map[string]interface{}
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	return payload, nil
}

// credentialFromPayload 把开放的属性包收敛为带校验的结构体。
func credentialFromPayload(payload map[string]interface{}) (*Credential, error) {
	tenantID, ok := toUint64(payload["tenantId"])
	if !ok {
		return nil, fmt.Errorf("%w: missing tenantId", ErrInvalidCredential)
	}
	deptID, ok := toUint64(payload["deptId"])
	if !ok {
		return nil, fmt.Errorf("%w: missing deptId", ErrInvalidCredential)
	}

	cred := &Credential{
		TenantID: tenantID,
		DeptID:   deptID,
		UserName: toString(payload["userName"]),
		DeptName: toString(payload["deptName"]),
		ClientID: toString(payload["clientid"]),
		Extra:    make(map[string]interface{}),
	}
	if id, ok := toUint64(payload["userId"]); ok {
		cred.UserID = id
	}
	// 上游有时不下发 userName，与原有行为保持一致给出默认值。
	if cred.UserName == "" {
		cred.UserName = "default_user"
	}

	known := map[string]struct{}{
		"tenantId": {}, "deptId": {}, "userId": {},
		"userName": {}, "deptName": {}, "clientid": {},
	}
	for k, v := range payload {
		if _, skip := known[k]; !skip {
			cred.Extra[k] = v
		}
	}
	return cred, nil
}

func toString(v interface{}) string {
	s, _ := v.(string)
	return s
}

// toUint64 宽容地解析数字：上游载荷里的 ID 可能是数字，也可能是
// 形如 "000000" 的字符串。
func toUint64(v interface{}) (uint64, bool) {
	switch n := v.(type) {
	case json.Number:
		u, err := strconv.ParseUint(n.String(), 10, 64)
		return u, err == nil
	case string:
		u, err := strconv.ParseUint(strings.TrimSpace(n), 10, 64)
		return u, err == nil
	case float64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	default:
		return 0, false
	}
}
