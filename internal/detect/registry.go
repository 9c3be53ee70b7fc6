package detect

// Registry прогоняет включённые детекторы в фиксированном порядке и
// принимает первый результат, отличный от NoMatch. Голевые детекторы
// регистрируются первыми: голевые фразы критичны ко времени реакции.
// Порядок — правило разрешения конфликтов, он настраивается при сборке
// реестра и не меняется в течение сессии.
type Registry struct {
	detectors []Detector
}

func NewRegistry(detectors ...Detector) *Registry {
	return &Registry{detectors: detectors}
}

// Run возвращает первый непустой результат и имя сработавшего детектора.
func (r *Registry) Run(ctx Context) (Result, string) {
	for _, d := range r.detectors {
		if !d.Enabled() {
			continue
		}
		if res := d.Detect(ctx); res.Kind != KindNoMatch {
			return res, d.Name()
		}
	}
	return NoMatch, ""
}

// Names возвращает имена детекторов в порядке регистрации.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.detectors))
	for _, d := range r.detectors {
		names = append(names, d.Name())
	}
	return names
}
