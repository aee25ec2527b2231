package cli

import (
	"fmt"
	"io"
)

const usageEN = `1. Please create file user-number.txt under this same directory.
2. In user-number.txt, you can specify hotsoon number separated by comma/space/tab/CR. Accept multiple lines of text
3. Save the file and retry.

Sample File Content:
number1,number2

Or use command line options:

Sample:
hotsoonripper number1,number2
`

const usageZH = `未找到user-number.txt文件，请创建.
请在文件中指定火山号，并以 逗号/空格/tab/表格鍵/回车符 分割，支持多行.
保存文件并重试.

例子: 火山号1,火山号2

或者直接使用命令行参数指定火山号
例子: hotsoonripper 火山号1,火山号2
`

// PrintUsage writes the bilingual usage text.
func PrintUsage(w io.Writer) {
	_, _ = fmt.Fprintf(w, "%s\n\n%s", usageEN, usageZH)
}
