package fulfillment

// Match выбирает товар для сканирования: среди неотсканированных с этим
// штрихкодом — с минимальным ID. Возвращает индекс (-1, если нечего отмечать)
// и общее количество товаров с кодом, независимо от статуса.
func Match(items []Item, code string) (int, int) {
	idx, total := -1, 0
	for i := range items {
		if items[i].Barcode != code {
			continue
		}
		total++
		if items[i].Scanned {
			continue
		}
		if idx == -1 || items[i].ID < items[idx].ID {
			idx = i
		}
	}
	return idx, total
}

// scannedWithCode сколько товаров с кодом уже отмечено.
func scannedWithCode(items []Item, code string) int {
	n := 0
	for _, it := range items {
		if it.Barcode == code && it.Scanned {
			n++
		}
	}
	return n
}

// Unscanned количество неотсканированных товаров.
func Unscanned(items []Item) int {
	n := 0
	for _, it := range items {
		if !it.Scanned {
			n++
		}
	}
	return n
}
