package importer

import (
	"sort"
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Field is a normalized column the importer understands.
type Field string

const (
	FieldDocumentType   Field = "tipo_documento"
	FieldDocumentNumber Field = "numero_documento"
	FieldFullName       Field = "nombre"
	FieldSex            Field = "sexo"
	FieldBirthDate      Field = "fecha_nacimiento"
	FieldEmail          Field = "correo"
	FieldPhone          Field = "telefono"
	FieldAddress        Field = "direccion"
	FieldCity           Field = "municipio"
	FieldPopulationType Field = "tipo_poblacion"
	FieldInstitution    Field = "institucion"
	FieldCourse         Field = "curso"
	FieldGrade          Field = "nota"
	FieldMCERLevel      Field = "nivel_mcer"
	FieldStatus         Field = "estado"
	FieldYear           Field = "anio"
	FieldSession        Field = "sesion"
	FieldAttendance     Field = "asistencia"
)

// Fields in resolution order. A header is claimed by the first field that lists it.
var Fields = []Field{
	FieldDocumentType, FieldDocumentNumber, FieldFullName, FieldSex, FieldBirthDate,
	FieldEmail, FieldPhone, FieldAddress, FieldCity, FieldPopulationType,
	FieldInstitution, FieldCourse, FieldGrade, FieldMCERLevel, FieldStatus,
	FieldYear, FieldSession, FieldAttendance,
}

// AliasTable maps each field to the header spellings seen across the yearly exports.
// Spellings are compared after foldHeader, so accents and case do not matter.
type AliasTable map[Field][]string

// AliasVersion is bumped whenever DefaultAliases changes.
const AliasVersion = 3

func DefaultAliases() AliasTable {
	return AliasTable{
		FieldDocumentType:   {"TIPO DE DOCUMENTO", "TIPO DOCUMENTO", "TIPO DE IDENTIFICACIÓN", "TIPO IDENTIFICACION", "TIPO ID"},
		FieldDocumentNumber: {"NÚMERO DE IDENTIFICACIÓN", "NUMERO DE DOCUMENTO", "NUMERO DOCUMENTO", "NÚMERO DOCUMENTO DE IDENTIDAD", "DOCUMENTO DE IDENTIDAD", "DOCUMENTO", "IDENTIFICACIÓN", "NO. DOCUMENTO", "CEDULA", "DOC"},
		FieldFullName:       {"NOMBRE COMPLETO", "NOMBRES Y APELLIDOS", "APELLIDOS Y NOMBRES", "NOMBRE", "NOMBRES"},
		FieldSex:            {"SEXO", "GÉNERO", "GENERO BIOLOGICO"},
		FieldBirthDate:      {"FECHA DE NACIMIENTO", "FECHA NACIMIENTO", "F. NACIMIENTO"},
		FieldEmail:          {"CORREO ELECTRÓNICO", "CORREO", "EMAIL", "E-MAIL", "CORREO INSTITUCIONAL"},
		FieldPhone:          {"TELÉFONO", "CELULAR", "TELEFONO CELULAR", "NÚMERO DE CONTACTO", "CONTACTO"},
		FieldAddress:        {"DIRECCIÓN", "DIRECCION DE RESIDENCIA"},
		FieldCity:           {"MUNICIPIO", "CIUDAD", "MUNICIPIO DE RESIDENCIA", "CIUDAD DE RESIDENCIA"},
		FieldPopulationType: {"TIPO DE POBLACIÓN", "TIPO POBLACION", "POBLACIÓN", "GRUPO POBLACIONAL"},
		FieldInstitution:    {"INSTITUCIÓN EDUCATIVA", "INSTITUCION", "NOMBRE INSTITUCIÓN", "NOMBRE DE LA INSTITUCION", "COLEGIO", "IE"},
		FieldCourse:         {"NOMBRE CURSO", "NOMBRE DEL CURSO", "CURSO", "PROGRAMA"},
		FieldGrade:          {"NOTA FINAL", "NOTA", "CALIFICACIÓN", "PUNTAJE"},
		FieldMCERLevel:      {"NIVEL MCER", "NIVEL ALCANZADO", "NIVEL", "MCER"},
		FieldStatus:         {"ESTADO", "ESTADO ESTUDIANTE", "RESULTADO"},
		FieldYear:           {"AÑO", "ANIO", "AÑO INSCRIPCIÓN", "AÑO DE INSCRIPCION", "VIGENCIA", "YEAR"},
		FieldSession:        {"SESIÓN", "FECHA SESION", "CLASE", "SEMANA"},
		FieldAttendance:     {"ASISTENCIA", "ASISTIÓ", "ESTADO ASISTENCIA"},
	}
}

// Merge returns a copy of t where the aliases of override come first for every field they name.
func (t AliasTable) Merge(override AliasTable) AliasTable {
	out := make(AliasTable, len(t))
	for f, list := range t {
		out[f] = append([]string(nil), list...)
	}
	for f, list := range override {
		out[f] = append(append([]string(nil), list...), out[f]...)
	}
	return out
}

// HeaderMap is the column index of every resolved field.
type HeaderMap map[Field]int

// Value returns the raw cell for f, or "" when the field is not mapped or the row is short.
func (h HeaderMap) Value(row []string, f Field) string {
	i, ok := h[f]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func (h HeaderMap) Has(f Field) bool {
	_, ok := h[f]
	return ok
}

// foldHeader removes accents, upper-cases and collapses separators.
func foldHeader(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.Map(func(r rune) rune {
		if r == '_' {
			return ' '
		}
		return r
	}, folded)
	return strings.ToUpper(strings.Join(strings.Fields(folded), " "))
}

// ResolveHeaders maps each field to a column once per file. Missing required
// fields produce a *MissingColumnsError with near matches that are never auto-accepted.
func ResolveHeaders(headers []string, aliases AliasTable, required []Field) (HeaderMap, error) {
	positions := make(map[string]int, len(headers))
	folded := make([]string, len(headers))
	for i, h := range headers {
		folded[i] = foldHeader(h)
		if _, seen := positions[folded[i]]; !seen {
			positions[folded[i]] = i
		}
	}

	hm := make(HeaderMap)
	taken := make(map[int]bool)
	for _, f := range Fields {
		for _, alias := range aliases[f] {
			i, ok := positions[foldHeader(alias)]
			if ok && !taken[i] {
				hm[f] = i
				taken[i] = true
				break
			}
		}
	}

	var missing []Field
	for _, f := range required {
		if !hm.Has(f) {
			missing = append(missing, f)
		}
	}
	if len(missing) == 0 {
		return hm, nil
	}

	suggestions := make(map[Field][]string)
	for _, f := range missing {
		suggestions[f] = suggestHeaders(headers, folded, taken, aliases[f])
	}
	return nil, &MissingColumnsError{Missing: missing, Suggestions: suggestions}
}

func suggestHeaders(headers, folded []string, taken map[int]bool, aliases []string) []string {
	best := make(map[int]int)
	for _, alias := range aliases {
		a := foldHeader(alias)
		for i, h := range folded {
			if taken[i] || h == "" {
				continue
			}
			d := fuzzy.LevenshteinDistance(a, h)
			if fuzzy.Match(h, a) || fuzzy.Match(a, h) || d <= len(a)/4+1 {
				if cur, ok := best[i]; !ok || d < cur {
					best[i] = d
				}
			}
		}
	}
	idx := make([]int, 0, len(best))
	for i := range best {
		idx = append(idx, i)
	}
	sort.Slice(idx, func(a, b int) bool {
		if best[idx[a]] != best[idx[b]] {
			return best[idx[a]] < best[idx[b]]
		}
		return idx[a] < idx[b]
	})
	if len(idx) > 3 {
		idx = idx[:3]
	}
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = headers[j]
	}
	return out
}
