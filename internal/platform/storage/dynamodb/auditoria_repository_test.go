package dynamodb

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

// dynamoFake guarda itens em memória e responde Query por partição, com paginação de 2 itens.
type dynamoFake struct {
	mu      sync.Mutex
	tabelas map[string]bool
	itens   map[string]map[string]types.AttributeValue
	puts    int
}

func newDynamoFake() *dynamoFake {
	return &dynamoFake{tabelas: map[string]bool{}, itens: map[string]map[string]types.AttributeValue{}}
}

func valorS(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *dynamoFake) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	chave := valorS(in.Item["pk"]) + "|" + valorS(in.Item["sk"])
	if _, ok := f.itens[chave]; ok && in.ConditionExpression != nil {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("item existente")}
	}
	f.itens[chave] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *dynamoFake) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pk := valorS(in.ExpressionAttributeValues[":pk"])

	var encontrados []map[string]types.AttributeValue
	for _, it := range f.itens {
		if valorS(it["pk"]) == pk {
			encontrados = append(encontrados, it)
		}
	}
	sort.Slice(encontrados, func(i, j int) bool {
		if aws.ToBool(in.ScanIndexForward) {
			return valorS(encontrados[i]["sk"]) < valorS(encontrados[j]["sk"])
		}
		return valorS(encontrados[i]["sk"]) > valorS(encontrados[j]["sk"])
	})

	inicio := 0
	if in.ExclusiveStartKey != nil {
		ultimo := valorS(in.ExclusiveStartKey["sk"])
		for i, it := range encontrados {
			if valorS(it["sk"]) == ultimo {
				inicio = i + 1
			}
		}
	}
	fim := inicio + 2
	out := &dynamodb.QueryOutput{}
	if fim < len(encontrados) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{"pk": encontrados[fim-1]["pk"], "sk": encontrados[fim-1]["sk"]}
	} else {
		fim = len(encontrados)
	}
	out.Items = encontrados[inicio:fim]
	return out, nil
}

func (f *dynamoFake) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.tabelas[aws.ToString(in.TableName)] {
		return nil, &types.ResourceNotFoundException{Message: aws.String("tabela inexistente")}
	}
	return &dynamodb.DescribeTableOutput{}, nil
}

func (f *dynamoFake) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tabelas[aws.ToString(in.TableName)] = true
	return &dynamodb.CreateTableOutput{}, nil
}

func TestAuditoriaRepository_ListByRecurso_DeveDevolverDoMaisRecenteAoMaisAntigo(t *testing.T) {
	fake := newDynamoFake()
	repo := NewAuditoriaRepository(fake, "auditoria")
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	obra := domain.ObraID("obra-1")

	// Arrange: três eventos do mesmo negócio e um de outro
	for i, tipo := range []domain.TipoEvento{domain.EventoNegocioCriado, domain.EventoNegocioEstagio, domain.EventoObraVinculada} {
		require.NoError(t, repo.Registrar(ctx, domain.Evento{
			ID:         domain.EventoID(string(rune('a' + i))),
			Tipo:       tipo,
			Recurso:    "negocio",
			RecursoID:  "n1",
			ObraID:     &obra,
			Dados:      map[string]string{"ordem": string(rune('0' + i))},
			OcorridoEm: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.Registrar(ctx, domain.Evento{ID: "z", Tipo: domain.EventoNegocioCriado, Recurso: "negocio", RecursoID: "n2", OcorridoEm: base}))

	// Act
	eventos, err := repo.ListByRecurso(ctx, "negocio", "n1")

	// Assert
	require.NoError(t, err)
	require.Len(t, eventos, 3)
	assert.Equal(t, domain.EventoObraVinculada, eventos[0].Tipo)
	assert.Equal(t, domain.EventoNegocioCriado, eventos[2].Tipo)
	assert.Equal(t, "0", eventos[2].Dados["ordem"])
	assert.True(t, base.Equal(eventos[2].OcorridoEm))
	require.NotNil(t, eventos[0].ObraID)
	assert.Equal(t, obra, *eventos[0].ObraID)
	assert.Nil(t, eventos[0].UsuarioID)
}

func TestAuditoriaRepository_Registrar_QuandoEventoReentregue_NaoDeveDuplicar(t *testing.T) {
	fake := newDynamoFake()
	repo := NewAuditoriaRepository(fake, "auditoria")
	ctx := context.Background()
	e := domain.Evento{ID: "e1", Tipo: domain.EventoFerramentaMovida, Recurso: "ferramenta", RecursoID: "f1", OcorridoEm: time.Now().UTC()}

	require.NoError(t, repo.Registrar(ctx, e))
	require.NoError(t, repo.Registrar(ctx, e))

	eventos, err := repo.ListByRecurso(ctx, "ferramenta", "f1")
	require.NoError(t, err)
	assert.Len(t, eventos, 1)
	assert.Equal(t, 2, fake.puts)
}

func TestAuditoriaRepository_GarantirTabela_DeveCriarSomenteQuandoAusente(t *testing.T) {
	fake := newDynamoFake()
	repo := NewAuditoriaRepository(fake, "auditoria")
	ctx := context.Background()

	require.NoError(t, repo.GarantirTabela(ctx))
	assert.True(t, fake.tabelas["auditoria"])
	require.NoError(t, repo.GarantirTabela(ctx))
}
