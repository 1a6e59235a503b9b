package output

// DefaultAssumptions lists key modeling assumptions rendered in detailed outputs.
var DefaultAssumptions = []string{
	"All amounts are in today's dollars; market returns are real (after inflation)",
	"Spending is paid from cash only; stocks are sold only to refill the cash ladder",
	"Cash never earns a return; stock returns are i.i.d. normal, floored at -95%",
	"Social Security at 70 reduces the yearly need from age 70 onward",
	"The cash buffer never holds more than 10 years of future need",
	"Success means every year's need is met in full through age 95",
}

// Policy is the one-line refill policy recorded in every export.
const Policy = "cash-only spending; refill on high-water-mark; 10-year max buffer"
