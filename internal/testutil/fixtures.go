package testutil

// SampleGrid is a small spreadsheet as read from disk: a header row then five
// candidates across two agencies.
func SampleGrid() [][]string {
	return [][]string{
		{"AGENCIA", "PUESTO", "NOMBRE", "EDAD", "ESTATUS"},
		{"Norte", "Chofer", "Ana López", "30", "contratado"},
		{"Norte", "Almacenista", "Beto Ruiz", "41", "no contesta"},
		{"Sur", "Chofer", "Carla Núñez", "25", "RECHAZDO"},
		{"Sur", "Ayudante", "Diego Mora", "19", ""},
		{"Norte", "Chofer", "Elena Paz", "52", "en espera"},
	}
}
