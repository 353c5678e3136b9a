package vm

import (
	"vault/types"
	"vault/utils"
)

// Guard 授权检查：签名恢复出的身份必须等于请求声明的 signer，且等于要求的身份
type Guard struct {
	namespace string
}

func NewGuard(namespace string) *Guard {
	return &Guard{namespace: namespace}
}

// Verify 返回 nil 表示已授权，否则返回 Unauthorized
func (g *Guard) Verify(req *types.Request, required string) error {
	if req.Signer == "" || required == "" {
		return newError(KindUnauthorized, "missing signer")
	}
	if !utils.VerifySigner(req.SigningBytes(g.namespace), req.Signature, req.Signer) {
		return newError(KindUnauthorized, "signature does not match signer %s", req.Signer)
	}
	if req.Signer != required {
		return newError(KindUnauthorized, "signer %s is not %s", req.Signer, required)
	}
	return nil
}

// Sign 客户端辅助：填好 Signer 并对请求签名
func Sign(req *types.Request, namespace string, km *utils.KeyManager) {
	req.Signer = km.GetAddress()
	req.Signature = km.Sign(req.SigningBytes(namespace))
}
