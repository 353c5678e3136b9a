package vm

import "vault/utils"

// RegisterDefaultHandlers 注册金库的三种请求处理器
func RegisterDefaultHandlers(reg *HandlerRegistry, namespace string) error {
	env := newHandlerEnv(namespace)

	handlers := []TxHandler{
		&DepositTxHandler{env: env},    // 存款
		&WithdrawTxHandler{env: env},   // 取款
		&ToggleLockTxHandler{env: env}, // 锁定/解锁
	}

	for _, h := range handlers {
		if err := reg.Register(h); err != nil {
			return err
		}
	}
	return nil
}

// handlerEnv handler 共享的只读依赖
type handlerEnv struct {
	deriver utils.AddressDeriver
	guard   *Guard
}

func newHandlerEnv(namespace string) *handlerEnv {
	d := utils.NewAddressDeriver(namespace)
	return &handlerEnv{deriver: d, guard: NewGuard(d.Namespace)}
}
