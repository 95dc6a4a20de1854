package heuristic

// czechBanks maps Czech clearing codes to bank names.
var czechBanks = map[string]string{
	"0100": "Komerční banka",
	"0300": "ČSOB",
	"0600": "MONETA Money Bank",
	"0710": "Česká národní banka",
	"0800": "Česká spořitelna",
	"2010": "Fio banka",
	"2060": "Citfin",
	"2250": "Banka CREDITAS",
	"2700": "UniCredit Bank",
	"3030": "Air Bank",
	"3050": "BNP Paribas Personal Finance",
	"3500": "ING Bank",
	"4000": "Max banka",
	"5500": "Raiffeisenbank",
	"5800": "J&T Banka",
	"6000": "PPF banka",
	"6100": "Raiffeisenbank",
	"6210": "mBank",
	"6300": "BNP Paribas",
	"6800": "Sberbank CZ",
	"7910": "Deutsche Bank",
	"7950": "Raiffeisen stavební spořitelna",
	"7960": "ČSOB Stavební spořitelna",
	"7970": "MONETA Stavební Spořitelna",
	"7990": "Modrá pyramida",
	"8030": "Volksbank Raiffeisenbank Nordoberpfalz",
	"8040": "Oberbank",
	"8250": "Bank of China",
	"8255": "Bank of Communications",
}
