package conf

import (
	"reflect"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/log"
	"github.com/txix-open/isp-kit/rc/schema"
	"github.com/txix-open/jsonschema"
)

func init() {
	schema.CustomGenerators.Register("logLevel", func(field reflect.StructField, t *jsonschema.Schema) {
		t.Type = "string"
		t.Enum = []interface{}{"debug", "info", "error", "fatal"}
	})
	schema.CustomGenerators.Register("tier", func(field reflect.StructField, t *jsonschema.Schema) {
		t.Type = "string"
		t.Enum = []interface{}{"UNLIMITED", "CRITICAL", "HIGH", "MEDIUM", "LOW"}
	})
}

type Remote struct {
	Ratelimit                       Ratelimit `schema:"Настройки ограничения частоты запросов"`
	Redis                           *Redis    `schema:"Настройки Redis,обязательно, если ограничения включены вне окружения development"`
	Http                            Http      `schema:"Настройки HTTP"`
	Logging                         Logging   `schema:"Настройки логирования"`
	EnableClientRequestIdForwarding bool      `schema:"Проксирование заголовка x-request-id,позволяет клиенту задавать идентификатор запроса"`
}

type Ratelimit struct {
	Enabled               bool          `schema:"Статус работы,включает/отключает проверку ограничений"`
	Environment           string        `valid:"required,in(development|staging|production)" schema:"Окружение,определяет набор предустановленных лимитов"`
	FailClosed            bool          `schema:"Отклонять запросы при недоступности Redis,по умолчанию запросы пропускаются"`
	BypassToken           string        `schema:"Секрет обхода,запросы с заголовком x-ratelimit-bypass равным секрету не учитываются"`
	Exclusions            []string      `schema:"Исключённые пути,шаблоны путей без ограничений; '*' в конце означает совпадение по префиксу"`
	StaffMultiplier       *float64      `schema:"Множитель для сотрудников,умножает количество запросов, окно не меняется; по умолчанию значение пресета"`
	DevUnlimited          *bool         `schema:"Безлимитный режим,подсчёт остаётся включённым с практически недостижимым лимитом; по умолчанию значение пресета"`
	Overrides             []TierLimit   `schema:"Переопределения лимитов,применяются к пресету окружения при обновлении конфигурации"`
	Tables                *TierPatterns `schema:"Шаблоны классификации,каждый заданный уровень полностью заменяет стандартный набор"`
	StoreTimeoutInMs      int           `schema:"Таймаут обращения к Redis,в миллисекундах, по умолчанию: 200"`
	TrustPrincipalHeaders bool          `schema:"Доверять заголовкам аутентификации,x-auth-user-id и x-auth-user-staff должны выставляться слоем аутентификации перед шлюзом"`
}

type TierLimit struct {
	Tier          string `valid:"required" schemaGen:"tier" schema:"Уровень"`
	Authenticated bool   `schema:"Для аутентифицированных"`
	Requests      int    `valid:"required" schema:"Количество запросов"`
	WindowInSec   int    `valid:"required" schema:"Окно,в секундах"`
}

type TierPatterns struct {
	Unlimited []string `schema:"UNLIMITED,служебные маршруты без ограничений"`
	Critical  []string `schema:"CRITICAL"`
	High      []string `schema:"HIGH"`
	Medium    []string `schema:"MEDIUM"`
	Low       []string `schema:"LOW"`
}

type Http struct {
	MaxRequestBodySizeInMb int64 `valid:"required" schema:"Максимальная длинна тела запроса,в мегабайтах"`
	ProxyTimeoutInSec      int   `valid:"required" schema:"Таймаут на проксирование,в секундах"`
}

type Logging struct {
	LogLevel         log.Level `schemaGen:"logLevel" schema:"Уровень логирования,логирование запросов осуществляется на уровне debug"`
	RequestLogEnable bool      `schema:"Включить логирование запросов"`
}

type Redis struct {
	Address  string         `schema:"Адрес,обязателено, если sentinel не указан"`
	Username string         `schema:"Имя пользовтаеля"`
	Password string         `schema:"Пароль"`
	Sentinel *RedisSentinel `schema:"Настройки sentinel,обязательно, если address не указан"`
}

type RedisSentinel struct {
	Addresses  []string `valid:"required" schema:"Адреса нод в кластере"`
	MasterName string   `valid:"required" schema:"Имя мастера"`
	Username   string   `schema:"Имя пользовтаеля в sentinel"`
	Password   string   `schema:"Пароль в sentinel"`
}

func (r Remote) Validate() error {
	if r.Ratelimit.Enabled && r.Redis == nil && r.Ratelimit.Environment != "development" {
		return errors.New("redis is required if ratelimit is enabled outside development")
	}
	if r.Redis != nil && r.Redis.Sentinel == nil && r.Redis.Address == "" {
		return errors.New("invalid redis config. sentinel or address are required")
	}
	return nil
}
