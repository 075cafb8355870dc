package registry

// The parameter dictionary, transcribed from the cloud API findings. Ranges
// are the documented ones: R06 is kept at 0-90 even though a live value of
// 200 has been observed; readings are surfaced as-is and never clamped.

func fp(v float64) *float64 { return &v }

// rw builds a writable definition with a documented closed range.
func rw(code, name, unit string, min, max float64, cat string) Definition {
	return Definition{Code: code, Name: name, Unit: unit, Min: fp(min), Max: fp(max), Writable: true, Kind: Numeric, Category: cat}
}

// ro builds a read-only definition without a documented range.
func ro(code, name, unit, cat string) Definition {
	return Definition{Code: code, Name: name, Unit: unit, Kind: Numeric, Category: cat}
}

// toggle builds a read-only on/off status definition.
func toggle(code, name, cat string) Definition {
	return Definition{Code: code, Name: name, Kind: Toggle, Category: cat}
}

// mask builds a 16-bit flag-vector definition.
func mask(code, name string, writable bool, cat string) Definition {
	return Definition{Code: code, Name: name, Writable: writable, Kind: Bitmask, Category: cat}
}

// enum builds a writable enumerated definition over [min, max].
func enum(code, name string, min, max float64, cat string) Definition {
	return Definition{Code: code, Name: name, Min: fp(min), Max: fp(max), Writable: true, Kind: Enum, Category: cat}
}

var defs = []Definition{
	// Control parameters.
	{Code: "Power", Name: "Power", Min: fp(0), Max: fp(1), Writable: true, Kind: Toggle, Category: "control"},
	enum("mode_real", "Operating mode", 0, 4, "control"),
	enum("Mode", "Operating mode (mirror)", 0, 7, "control"),

	// Output configuration.
	rw("/01", "Usage of OUT 05", "", 0, 2, "output"),
	rw("/02", "Usage of OUT 06", "", 0, 3, "output"),

	// C codes: compressor and cycle settings.
	rw("C01", "Delay timer", "min", 0, 120, "compressor"),
	rw("C02", "Min cycle time", "min", 20, 60, "compressor"),
	rw("C03", "Max cycle time", "min", 30, 120, "compressor"),
	rw("C05", "Run time counter", "", 0, 65535, "compressor"),
	rw("C06", "Timer setting C06", "min", 0, 120, "compressor"),
	rw("C07", "Timer setting C07", "min", 0, 120, "compressor"),
	rw("C08", "Timer setting C08", "min", 0, 120, "compressor"),
	rw("C09", "Timer setting C09", "min", 0, 120, "compressor"),

	// D codes: defrost settings.
	rw("D01", "Defrost start temp", "°C", -30, 0, "defrost"),
	rw("D02", "Defrost end temp", "°C", 0, 30, "defrost"),
	rw("D03", "Defrost duration", "min", 30, 90, "defrost"),
	rw("D04", "Max defrost duration", "min", 1, 20, "defrost"),
	rw("D05", "Min defrost duration", "min", 0, 4, "defrost"),
	rw("D06", "Defrost mode", "", 0, 2, "defrost"),
	rw("D07", "Intelligent defrost judgement", "°C", -10, 20, "defrost"),
	rw("D10", "Low temp threshold", "°C", -30, 5, "defrost"),
	rw("D11", "Defrost duration setting", "min", 5, 30, "defrost"),
	rw("D12", "Temp differential", "°C", 0, 20, "defrost"),
	rw("D13", "Min operating temp", "°C", -30, 0, "defrost"),

	// E codes: electronic expansion valve.
	rw("E01", "EEV adjustment mode", "", 0, 1, "eev"),
	rw("E02", "Target superheat", "°C", -20, 20, "eev"),
	rw("E03", "EEV original position", "", 0, 500, "eev"),
	rw("E04", "EEV min opening", "", 0, 500, "eev"),
	rw("E05", "EEV defrost position", "", 0, 500, "eev"),
	rw("E06", "EEV timer setting", "", 0, 480, "eev"),

	// F codes: fan and compressor frequency.
	rw("F01", "Fan mode", "", 0, 4, "fan"),
	rw("F02", "Min frequency", "Hz", 0, 1500, "fan"),
	mask("F03", "Configuration flags", true, "fan"),
	rw("F04", "Max frequency", "Hz", 0, 1500, "fan"),
	rw("F05", "Frequency setting", "Hz", 0, 1500, "fan"),
	rw("F06", "Fan start temp", "°C", 0, 50, "fan"),
	rw("F07", "Fan max temp", "°C", 0, 50, "fan"),
	rw("F09", "Frequency step F09", "Hz", 0, 1500, "fan"),
	rw("F10", "Frequency step F10", "Hz", 0, 1500, "fan"),
	rw("F11", "Frequency step F11", "Hz", 0, 1500, "fan"),
	rw("F12", "Frequency step F12", "Hz", 0, 1500, "fan"),
	rw("F13", "Frequency step F13", "Hz", 0, 1500, "fan"),

	// G codes: disinfection.
	rw("G01", "Disinfection target temp", "°C", 30, 70, "disinfection"),
	rw("G02", "Disinfection duration", "min", 0, 90, "disinfection"),
	rw("G03", "Disinfection start hour", "h", 0, 23, "disinfection"),
	rw("G04", "Disinfection interval", "days", 1, 99, "disinfection"),

	// H codes: heater and controller settings.
	rw("H01", "Remember status on power down", "", 0, 1, "heater"),
	rw("H03", "Heating source", "", 0, 0, "heater"),
	rw("H07", "Temperature unit", "", 0, 1, "heater"),
	rw("H09", "Heater option", "", 0, 1, "heater"),
	rw("H16", "Heater power level", "", 0, 10, "heater"),
	rw("H30", "Device address", "", 1, 255, "heater"),
	rw("H31", "Intelligent control mode", "", 0, 1, "heater"),
	rw("H32", "Cloud submit interval", "min", 1, 255, "heater"),
	rw("H98", "Target temp range", "", 2, 3, "heater"),
	rw("H99", "Shown temp compensation", "", 0, 1, "heater"),

	// L codes: clock and timer schedule.
	rw("L02", "Year (20XX)", "year", 20, 99, "timer"),
	rw("L03", "Month", "month", 1, 12, "timer"),
	rw("L04", "Day", "day", 1, 31, "timer"),
	rw("L06", "Timer 1 start hour", "h", 0, 23, "timer"),
	rw("L07", "Timer 1 start minute", "min", 0, 59, "timer"),
	rw("L08", "Timer 1 end hour", "h", 0, 23, "timer"),
	rw("L09", "Timer 1 end minute", "min", 0, 59, "timer"),
	rw("L10", "Timer 2 start hour", "h", 0, 23, "timer"),
	rw("L11", "Timer 2 start minute", "min", 0, 59, "timer"),
	rw("L12", "Timer 2 end hour", "h", 0, 23, "timer"),
	rw("L13", "Timer 2 end minute", "min", 0, 59, "timer"),
	mask("L28", "Schedule flags", true, "timer"),
	rw("L29", "Timer config", "", 0, 255, "timer"),
	mask("L30", "Timer status", false, "timer"),
	ro("L31", "Timer counter L31", "", "timer"),
	ro("L32", "Timer counter L32", "", "timer"),

	// M codes: mode and device clock.
	rw("M06", "Mode setting M06", "", 1, 2, "mode"),
	rw("M07", "Enable flag M07", "", 0, 1, "mode"),
	rw("M12", "Device time minute", "min", 0, 59, "mode"),
	rw("M13", "Device time hour", "h", 0, 23, "mode"),
	rw("M14", "Device time day", "day", 1, 31, "mode"),
	rw("M15", "Device time month", "month", 1, 12, "mode"),
	rw("M16", "Device time year", "year", 0, 99, "mode"),
	ro("M17", "Fan status", "", "mode"),

	// N codes: solar.
	rw("N01", "Solar water pump sensor", "", 0, 1, "solar"),
	rw("N02", "Solar pump max runtime", "min", 1, 30, "solar"),
	rw("N03", "Solar pump temp hysteresis", "°C", 0, 20, "solar"),
	rw("N04", "Nighttime temp decrease mode", "", 0, 1, "solar"),
	rw("N05", "Night decrease start hour", "h", 0, 23, "solar"),
	rw("N06", "Night decrease end hour", "h", 0, 23, "solar"),
	rw("N07", "Solar temp decrease start", "°C", 40, 90, "solar"),
	rw("N08", "Solar temp decrease hysteresis", "°C", 1, 40, "solar"),
	rw("N09", "Solar water release temp", "°C", 50, 90, "solar"),
	rw("N10", "Solar pump shutdown temp", "°C", 50, 90, "solar"),
	rw("N11", "Solar pump working mode", "", 0, 1, "solar"),

	// O codes: operating data, read-only.
	toggle("O01", "Compressor", "operating"),
	toggle("O02", "Electrical heater", "operating"),
	toggle("O03", "4-way valve", "operating"),
	toggle("O04", "Fan high speed", "operating"),
	toggle("O05", "Fan low speed", "operating"),
	toggle("O06", "Solar pump/valve", "operating"),
	ro("O07", "EEV current position", "", "operating"),
	ro("O08", "Compressor runtime", "h", "operating"),
	ro("O09", "Booster runtime", "h", "operating"),
	toggle("O10", "3V_DE status", "operating"),
	toggle("O11", "MV_DE status", "operating"),
	toggle("O12", "Shutdown status", "operating"),
	toggle("O13", "DTU/WiFi online status", "operating"),
	toggle("O14", "Defrost status", "operating"),
	toggle("O15", "High temp hot water stage", "operating"),
	ro("O18", "Status O18", "", "operating"),
	ro("O19", "Status O19", "", "operating"),
	ro("O20", "Status O20", "", "operating"),
	ro("O21", "Temp sensor O21", "°C", "operating"),
	ro("O22", "Status O22", "", "operating"),
	ro("O23", "Status O23", "", "operating"),
	ro("O24", "Status O24", "", "operating"),
	ro("O25", "Status O25", "", "operating"),
	ro("O26", "Status O26", "", "operating"),
	ro("O27", "Status O27", "", "operating"),
	ro("O28", "Status O28", "", "operating"),
	ro("O29", "Compressor speed", "Hz", "operating"),

	// R codes: main settings.
	rw("R01", "Target temperature", "°C", 38, 75, "main"),
	rw("R02", "Sub-mode setting", "", 0, 3, "main"),
	rw("R03", "HP startup hysteresis (bottom)", "°C", 1, 20, "main"),
	rw("R04", "Enable R05 as booster setpoint", "", 0, 1, "main"),
	rw("R05", "Booster setpoint", "°C", 30, 90, "main"),
	rw("R06", "Booster startup delay", "min", 0, 90, "main"),
	rw("R07", "Booster replaces HP", "", 0, 1, "main"),
	rw("R08", "Ambient temp to replace HP", "°C", -20, 10, "main"),
	rw("R09", "Ambient temp booster no delay", "°C", 0, 30, "main"),
	rw("R10", "Ambient temp booster with delay", "°C", 10, 40, "main"),
	rw("R11", "Option flag R11", "", 0, 1, "main"),
	rw("R12", "Compressor shutdown temp", "°C", -30, -5, "main"),
	rw("R13", "Mode/level setting R13", "", 0, 5, "main"),
	rw("R14", "Second heat source target", "°C", 38, 78, "main"),
	rw("R15", "Max ambient temp for compressor", "°C", 55, 80, "main"),
	rw("R16", "Mode setting R16", "", 0, 3, "main"),
	rw("R17", "Top sensor controls compressor", "", 0, 1, "main"),
	rw("R18", "HP startup hysteresis (top)", "°C", 1, 20, "main"),
	rw("R19", "Compressor stop setpoint 1", "°C", 30, 90, "main"),
	rw("R20", "Compressor stop setpoint 2", "°C", 30, 90, "main"),

	// T codes: sensors and counters.
	ro("T01", "Ambient temperature", "°C", "temp"),
	ro("T02", "Bottom temperature", "°C", "temp"),
	ro("T03", "Top temperature", "°C", "temp"),
	ro("T04", "Coil temperature", "°C", "temp"),
	ro("T05", "Suction temperature", "°C", "temp"),
	ro("T06", "Solar temperature", "°C", "temp"),
	ro("T07", "Discharge temperature", "°C", "temp"),
	mask("T08", "Sensor status flags", false, "temp"),
	ro("T09", "Temp sensor T09", "", "temp"),
	ro("T10", "Display temperature", "°C", "temp"),
	ro("T11", "Protection count", "", "temp"),
	ro("T12", "EEPROM storage count", "", "temp"),
	ro("T20", "Status T20", "", "temp"),
	ro("T21", "Status T21", "", "temp"),
}

// Numeric register aliases confirmed by the full-range scan. The cloud API
// resolves these interchangeably with the letter codes.
var aliases = map[string]int{
	"Power":     1101,
	"Mode":      1102,
	"mode_real": 1103,

	"R01": 1104, "R02": 1105, "R03": 1106, "R04": 1107, "R05": 1108,
	"R06": 1109, "R07": 1110, "R08": 1111, "R09": 1112, "R10": 1113,
	"R11": 1114, "R12": 1115, "R13": 1116, "R14": 1117, "R15": 1118,
	"R16": 1119, "R17": 1120, "R18": 1121, "R19": 1122, "R20": 1123,

	"T01": 1130, "T02": 1131, "T03": 1132, "T04": 1133, "T05": 1134,
	"T06": 1135, "T07": 1136, "T08": 1137, "T09": 1138, "T10": 1139,
	"T11": 1140, "T12": 1141, "T20": 1149, "T21": 1150,
}
