// Pacote dynamodb grava o log de auditoria numa tabela DynamoDB (AUDITORIA_BACKEND=dynamodb).
package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type Opcoes struct {
	Regiao    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// NewClient usa a cadeia padrão de credenciais da AWS; chaves estáticas e endpoint
// só são aplicados quando informados (DynamoDB local).
func NewClient(ctx context.Context, op Opcoes) (*dynamodb.Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(op.Regiao),
	}
	if op.AccessKey != "" && op.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(op.AccessKey, op.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("dynamodb: carregar configuracao aws: %w", err)
	}

	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if op.Endpoint != "" {
			o.BaseEndpoint = aws.String(op.Endpoint)
		}
	}), nil
}
