// Интерфейс Провайдера через который работает всё приложение.

package llm

import "context"

// Provider - абстракция над chat-completion API.
//
// Generate принимает историю сообщений и опции запроса и возвращает ответ
// модели в унифицированном формате Message: либо только текст, либо
// текст + ToolCalls (если переданы функции через WithFunctions).
//
// Ошибки транспорта должны оборачиваться в *TransportError, чтобы
// RetryProvider мог отличить временный сбой от фатального.
type Provider interface {
	Generate(ctx context.Context, messages []Message, opts ...GenerateOption) (Message, error)
}

// ProviderFunc позволяет использовать функцию как Provider.
type ProviderFunc func(ctx context.Context, messages []Message, opts ...GenerateOption) (Message, error)

// Generate вызывает f.
func (f ProviderFunc) Generate(ctx context.Context, messages []Message, opts ...GenerateOption) (Message, error) {
	return f(ctx, messages, opts...)
}
