package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

// API é o subconjunto do cliente DynamoDB usado pelo repositório.
type API interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

const (
	chaveParticao  = "pk"
	chaveOrdenacao = "sk"
)

// eventoItem é particionado por recurso ("negocio#<id>") e ordenado por "<instante>#<id do evento>".
type eventoItem struct {
	PK         string            `dynamodbav:"pk"`
	SK         string            `dynamodbav:"sk"`
	ID         string            `dynamodbav:"id"`
	Tipo       string            `dynamodbav:"tipo"`
	Recurso    string            `dynamodbav:"recurso"`
	RecursoID  string            `dynamodbav:"recurso_id"`
	ObraID     string            `dynamodbav:"obra_id,omitempty"`
	UsuarioID  string            `dynamodbav:"usuario_id,omitempty"`
	Dados      map[string]string `dynamodbav:"dados,omitempty"`
	OcorridoEm string            `dynamodbav:"ocorrido_em"`
}

type AuditoriaRepository struct {
	ddb    API
	tabela string
}

func NewAuditoriaRepository(ddb API, tabela string) *AuditoriaRepository {
	return &AuditoriaRepository{ddb: ddb, tabela: tabela}
}

func particao(recurso, id string) string {
	return recurso + "#" + id
}

func toItem(e domain.Evento) eventoItem {
	ocorrido := e.OcorridoEm.UTC().Format(time.RFC3339Nano)
	it := eventoItem{
		PK:         particao(e.Recurso, e.RecursoID),
		SK:         e.OcorridoEm.UTC().Format("20060102T150405.000000000") + "#" + string(e.ID),
		ID:         string(e.ID),
		Tipo:       string(e.Tipo),
		Recurso:    e.Recurso,
		RecursoID:  e.RecursoID,
		Dados:      e.Dados,
		OcorridoEm: ocorrido,
	}
	if e.ObraID != nil {
		it.ObraID = string(*e.ObraID)
	}
	if e.UsuarioID != nil {
		it.UsuarioID = string(*e.UsuarioID)
	}
	return it
}

func (it eventoItem) toDomain() domain.Evento {
	e := domain.Evento{
		ID:        domain.EventoID(it.ID),
		Tipo:      domain.TipoEvento(it.Tipo),
		Recurso:   it.Recurso,
		RecursoID: it.RecursoID,
		Dados:     it.Dados,
	}
	e.OcorridoEm, _ = time.Parse(time.RFC3339Nano, it.OcorridoEm)
	if it.ObraID != "" {
		obra := domain.ObraID(it.ObraID)
		e.ObraID = &obra
	}
	if it.UsuarioID != "" {
		usuario := domain.UsuarioID(it.UsuarioID)
		e.UsuarioID = &usuario
	}
	return e
}

// Registrar é idempotente por evento: reentregas da fila não duplicam o registro.
func (r *AuditoriaRepository) Registrar(ctx context.Context, e domain.Evento) error {
	av, err := attributevalue.MarshalMap(toItem(e))
	if err != nil {
		return fmt.Errorf("dynamodb auditoria: serializar evento: %w", err)
	}

	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tabela),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#sk)"),
		ExpressionAttributeNames: map[string]string{
			"#sk": chaveOrdenacao,
		},
	})
	var cfe *types.ConditionalCheckFailedException
	if errors.As(err, &cfe) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("dynamodb auditoria: inserir: %w", err)
	}
	return nil
}

func (r *AuditoriaRepository) ListByRecurso(ctx context.Context, recurso, id string) ([]domain.Evento, error) {
	var (
		eventos []domain.Evento
		inicio  map[string]types.AttributeValue
	)
	for {
		out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tabela),
			KeyConditionExpression: aws.String("#pk = :pk"),
			ExpressionAttributeNames: map[string]string{
				"#pk": chaveParticao,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: particao(recurso, id)},
			},
			ScanIndexForward:  aws.Bool(false),
			ExclusiveStartKey: inicio,
		})
		if err != nil {
			return nil, fmt.Errorf("dynamodb auditoria: listar: %w", err)
		}

		var itens []eventoItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &itens); err != nil {
			return nil, fmt.Errorf("dynamodb auditoria: ler itens: %w", err)
		}
		for _, it := range itens {
			eventos = append(eventos, it.toDomain())
		}

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		inicio = out.LastEvaluatedKey
	}
	return eventos, nil
}

// Ping confirma que a tabela responde; usado pelo /readyz.
func (r *AuditoriaRepository) Ping(ctx context.Context) error {
	_, err := r.ddb.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(r.tabela)})
	return err
}

// GarantirTabela cria a tabela sob demanda (ambientes locais); em produção ela já existe.
func (r *AuditoriaRepository) GarantirTabela(ctx context.Context) error {
	_, err := r.ddb.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(r.tabela)})
	if err == nil {
		return nil
	}
	var nf *types.ResourceNotFoundException
	if !errors.As(err, &nf) {
		return fmt.Errorf("dynamodb auditoria: descrever tabela: %w", err)
	}

	_, err = r.ddb.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(r.tabela),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(chaveParticao), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(chaveOrdenacao), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(chaveParticao), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(chaveOrdenacao), KeyType: types.KeyTypeRange},
		},
	})
	if err != nil {
		return fmt.Errorf("dynamodb auditoria: criar tabela: %w", err)
	}
	return nil
}

var (
	_ domain.AuditoriaRepository = (*AuditoriaRepository)(nil)
	_ API                        = (*dynamodb.Client)(nil)
)
