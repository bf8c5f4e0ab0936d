package service

import (
	"golang.org/x/crypto/bcrypt"
)

// AdminGate 管理密码校验，单一共享密钥，通过/拒绝二选一
type AdminGate struct {
	secret string
	hash   string
}

// NewAdminGate 创建校验器
// 配置了 bcrypt 哈希时优先用哈希比对（恒定时间），否则退回明文相等
func NewAdminGate(secret, hash string) *AdminGate {
	return &AdminGate{secret: secret, hash: hash}
}

// Authorize 校验提交的密码
func (g *AdminGate) Authorize(submitted string) bool {
	if submitted == "" {
		return false
	}

	if g.hash != "" {
		return bcrypt.CompareHashAndPassword([]byte(g.hash), []byte(submitted)) == nil
	}

	return g.secret != "" && submitted == g.secret
}
