package mock

import (
	"context"

	"github.com/minyuzhao/rtutor/pkg/models"
)

// MockProvider satisfies models.AIProvider for testing and local development.
type MockProvider struct {
	Name_        string
	CompleteFunc func(ctx context.Context, req models.CompletionRequest) (string, error)
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return "", nil
}

// NewMockProvider returns a MockProvider with canned responses per request type.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock",
		CompleteFunc: func(_ context.Context, req models.CompletionRequest) (string, error) {
			switch req.RequestType {
			case models.RequestTypeHomework:
				return `{"solutions": [` +
					`{"name": "基础方法", "code": "# 使用基础R函数\nresult <- mean(x)", "description": "使用基础R实现"},` +
					`{"name": "dplyr方法", "code": "# 使用dplyr包\nlibrary(dplyr)\nresult <- summarise(df, m = mean(x))", "description": "使用dplyr管道实现"},` +
					`{"name": "向量化方法", "code": "# 向量化计算\nresult <- sum(x) / length(x)", "description": "手动向量化实现"}]}`, nil
			case models.RequestTypeExplanation:
				return "这段代码首先读取数据，然后进行处理，最后输出结果。", nil
			default:
				return "这是一个模拟回复，用于测试和本地开发。", nil
			}
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		CompleteFunc: func(_ context.Context, _ models.CompletionRequest) (string, error) {
			return "", err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock-timeout",
		CompleteFunc: func(ctx context.Context, _ models.CompletionRequest) (string, error) {
			<-ctx.Done()
			return "", models.ErrInferenceTimeout
		},
	}
}

// Compile-time check that MockProvider implements AIProvider.
var _ models.AIProvider = (*MockProvider)(nil)
